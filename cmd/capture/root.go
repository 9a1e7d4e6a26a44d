package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"inventorycam/internal/app"
	"inventorycam/internal/camera"
	"inventorycam/internal/config"
	"inventorycam/internal/logger"
	"inventorycam/internal/pipeline"
	"inventorycam/internal/publisher"
	"inventorycam/internal/repository/sqlite"
	"inventorycam/internal/service/inventory"
)

type captureOptions struct {
	device      string
	modelPath   string
	modelConfig string
	imagePath   string
	readyWait   time.Duration
	record      bool
	jsonOutput  bool
}

func newRootCommand() *cobra.Command {
	var opts captureOptions

	rootCmd := &cobra.Command{
		Use:           "inventorycam-capture",
		Short:         "Capture one still, publish it and list detected items",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCapture(ctx, cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.device, "device", "", "Camera index or path (overrides CAMERA_DEVICE)")
	flags.StringVar(&opts.modelPath, "model", "", "Detection model weights (overrides MODEL_PATH)")
	flags.StringVar(&opts.modelConfig, "model-config", "", "Detection model config (overrides MODEL_CONFIG_PATH)")
	flags.StringVarP(&opts.imagePath, "image", "i", "", "Classify a PNG or JPEG file instead of the camera")
	flags.DurationVar(&opts.readyWait, "wait", 5*time.Second, "How long to wait for the first camera frame")
	flags.BoolVar(&opts.record, "record", false, "Record the capture and update the inventory database")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON even on a terminal")

	return rootCmd
}

func runCapture(ctx context.Context, cmd *cobra.Command, opts captureOptions) error {
	cfg := config.Load()
	if opts.device != "" {
		cfg.CameraDevice = opts.device
	}
	if opts.modelPath != "" {
		cfg.ModelPath = opts.modelPath
	}
	if opts.modelConfig != "" {
		cfg.ConfigPath = opts.modelConfig
	}

	log := logger.NewLogger(cfg)
	defer log.Close()

	blobs, err := app.NewBlobStore(cfg, log)
	if err != nil {
		return err
	}

	cls := app.NewClassifier(cfg, log)
	defer cls.Close()

	var callback pipeline.Callback
	if opts.record {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := inventory.NewService(sqlite.NewItemRepository(db), sqlite.NewCaptureRepository(db), blobs, nil, nil, log)
		callback = svc.HandleCapture
	}

	orchestrator := pipeline.New(
		camera.NewCapturer(cfg.CaptureWidth, cfg.CaptureHeight),
		publisher.New(blobs, log),
		cls,
		callback,
		log,
	)

	src, release, err := openSource(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer release()

	result, err := orchestrator.CaptureAndClassify(ctx, src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput || !isTerminal(out) {
		return writeResultJSON(out, result)
	}
	_, err = fmt.Fprintln(out, renderResult(result))
	return err
}

// openSource returns the frame source for this run and a function releasing it.
func openSource(ctx context.Context, cfg *config.Config, log *logger.Logger, opts captureOptions) (camera.FrameSource, func(), error) {
	if opts.imagePath != "" {
		src, err := loadImageSource(opts.imagePath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}

	cam := app.NewCamera(cfg, log)
	if err := cam.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start camera: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.readyWait)
	defer cancel()
	if err := cam.WaitReady(waitCtx); err != nil {
		cam.Stop()
		return nil, nil, fmt.Errorf("wait for camera: %w", err)
	}
	return cam, cam.Stop, nil
}
