package repository

import (
	"context"

	"inventorycam/internal/model"
)

// ItemRepository defines the interface for inventory item operations.
type ItemRepository interface {
	// Read operations
	List(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, name string) (*model.Item, error)

	// Write operations
	Increment(ctx context.Context, name string, by int) (*model.Item, error)
	Decrement(ctx context.Context, name string) (*model.Item, error)
	Delete(ctx context.Context, name string) error
}

// CaptureRepository defines the interface for the capture log.
type CaptureRepository interface {
	// Create operations
	Insert(ctx context.Context, capture *model.Capture) error

	// Read operations
	GetByID(ctx context.Context, id string) (*model.Capture, error)
	List(ctx context.Context, filter *model.CaptureFilter) ([]model.Capture, error)
	Count(ctx context.Context, filter *model.CaptureFilter) (int, error)
	GetAllLabels(ctx context.Context) ([]string, error)

	// Delete operations
	Delete(ctx context.Context, id string) error
}
