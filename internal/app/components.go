package app

import (
	"fmt"

	"inventorycam/internal/blob"
	"inventorycam/internal/blob/diskstore"
	"inventorycam/internal/blob/s3store"
	"inventorycam/internal/camera"
	"inventorycam/internal/camera/devicelock"
	"inventorycam/internal/camera/webcam"
	"inventorycam/internal/classifier"
	"inventorycam/internal/classifier/ssd"
	"inventorycam/internal/config"
	"inventorycam/internal/logger"
)

// BlobStore is the configured artifact store.
type BlobStore struct {
	blob.Store
	blob.Deleter
	// Root is the local directory for the disk backend, empty otherwise.
	Root string
}

// NewBlobStore builds the store selected by BLOB_BACKEND.
func NewBlobStore(cfg *config.Config, logger *logger.Logger) (*BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendDisk, "":
		store, err := diskstore.New(cfg.BlobDirectory, cfg.PublicBaseURL, logger)
		if err != nil {
			return nil, err
		}
		return &BlobStore{Store: store, Deleter: store, Root: store.Root()}, nil

	case config.BlobBackendS3:
		store, err := s3store.New(s3store.OptionsFromConfig(cfg), logger)
		if err != nil {
			return nil, err
		}
		return &BlobStore{Store: store, Deleter: store}, nil

	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// NewCamera builds the session manager for the configured device.
func NewCamera(cfg *config.Config, logger *logger.Logger) *camera.Manager {
	device := devicelock.New(webcam.New(cfg.CameraDevice), cfg.CameraLock)
	return camera.NewManager(device, camera.Constraints{
		Video:  true,
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
	}, logger)
}

// NewClassifier builds the lazily loaded SSD classifier.
func NewClassifier(cfg *config.Config, logger *logger.Logger) *classifier.Adapter {
	loader := ssd.Loader{ModelPath: cfg.ModelPath, ConfigPath: cfg.ConfigPath, Logger: logger}
	return classifier.New(loader, classifier.Options{
		MinScore:      cfg.MinScore,
		MaxDetections: cfg.MaxDetections,
	}, logger)
}
