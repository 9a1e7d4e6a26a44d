package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"inventorycam/internal/camera"
	"inventorycam/internal/classifier"
	"inventorycam/internal/config"
	"inventorycam/internal/logger"
	"inventorycam/internal/pipeline"
	"inventorycam/internal/publisher"
	"inventorycam/internal/repository/sqlite"
	"inventorycam/internal/routes"
	"inventorycam/internal/service/inventory"
	"inventorycam/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config       *config.Config
	logger       *logger.Logger
	db           *sqlite.DB
	blobs        *BlobStore
	camera       *camera.Manager
	classifier   *classifier.Adapter
	hubService   *websocket.HubService
	validate     *validator.Validate
	inventory    *inventory.Service
	orchestrator *pipeline.Orchestrator
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	blobs, err := NewBlobStore(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	validate := validator.New()
	hub := websocket.NewHubService(log)
	cam := NewCamera(cfg, log)
	cls := NewClassifier(cfg, log)

	inv := inventory.NewService(
		sqlite.NewItemRepository(db),
		sqlite.NewCaptureRepository(db),
		blobs,
		hub,
		validate,
		log,
	)

	orchestrator := pipeline.New(
		camera.NewCapturer(cfg.CaptureWidth, cfg.CaptureHeight),
		publisher.New(blobs, log),
		cls,
		inv.HandleCapture,
		log,
	)

	return &App{
		config:       cfg,
		logger:       log,
		db:           db,
		blobs:        blobs,
		camera:       cam,
		classifier:   cls,
		hubService:   hub,
		validate:     validate,
		inventory:    inv,
		orchestrator: orchestrator,
	}, nil
}

func (a *App) Handler() http.Handler {
	return routes.SetupRoutes(routes.Dependencies{
		Config:       a.config,
		Logger:       a.logger,
		Camera:       a.camera,
		Frames:       a.camera,
		Model:        a.classifier,
		Orchestrator: a.orchestrator,
		Inventory:    a.inventory,
		Captures:     a.inventory,
		Hub:          a.hubService,
		Notifier:     a.hubService,
		Validate:     a.validate,
		ArtifactRoot: a.blobs.Root,
	})
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.hubService.Run()

	// Model w tle, zeby pierwsze zdjecie nie czekalo
	go func() {
		if err := a.classifier.EnsureModelLoaded(ctx); err != nil {
			a.logger.Warning("Detection model not loaded yet: %v", err)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("Inventory server listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Blob backend: %s, model: %s", a.config.BlobBackend, a.config.ModelPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	a.Close()
	return err
}

// Close releases the camera, the model, the hub and the database.
func (a *App) Close() {
	a.camera.Close()
	a.hubService.Stop()
	if err := a.classifier.Close(); err != nil {
		a.logger.Error("Error closing model: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
	a.logger.Close()
}
