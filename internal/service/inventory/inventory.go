// Package inventory keeps item quantities and the capture log, and turns
// capture results into inventory updates.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"inventorycam/internal/blob"
	"inventorycam/internal/dto"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
	"inventorycam/internal/pipeline"
	"inventorycam/internal/repository"
	"inventorycam/internal/service/websocket"
)

var (
	// ErrEmptyName is returned for item names that are blank after trimming.
	ErrEmptyName = errors.New("inventory: empty item name")

	// ErrInvalidName is returned for names failing validation.
	ErrInvalidName = errors.New("inventory: invalid item name")

	// ErrCaptureNotFound is returned when a capture id is unknown.
	ErrCaptureNotFound = errors.New("inventory: capture not found")
)

// Notifier receives inventory and capture events.
type Notifier interface {
	Publish(eventType string, payload interface{})
}

// Service implements inventory operations.
type Service struct {
	items    repository.ItemRepository
	captures repository.CaptureRepository
	blobs    blob.Deleter
	notifier Notifier
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates the service. blobs and notifier may be nil.
func NewService(items repository.ItemRepository, captures repository.CaptureRepository, blobs blob.Deleter, notifier Notifier, validate *validator.Validate, logger *logger.Logger) *Service {
	if validate == nil {
		validate = validator.New()
	}
	return &Service{
		items:    items,
		captures: captures,
		blobs:    blobs,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// NormalizeName trims and lower-cases an item name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Service) checkName(raw string) (string, error) {
	name := NormalizeName(raw)
	if name == "" {
		return "", ErrEmptyName
	}
	if err := s.validate.Struct(dto.ItemRequest{Name: name}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return name, nil
}

// List returns all items sorted by name.
func (s *Service) List(ctx context.Context) ([]model.Item, error) {
	return s.items.List(ctx)
}

// AddItem adds one unit of name, creating the item at quantity 1.
func (s *Service) AddItem(ctx context.Context, name string) (*model.Item, error) {
	name, err := s.checkName(name)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Increment(ctx, name, 1)
	if err != nil {
		s.logger.Error("Error adding item %s: %v", name, err)
		return nil, err
	}

	s.logger.Info("Item %s quantity %d", item.Name, item.Quantity)
	s.notifyInventory(ctx)
	return item, nil
}

// RemoveItem removes one unit of name. An item at quantity 1 is deleted and nil
// is returned. Removing an unknown item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, name string) (*model.Item, error) {
	name, err := s.checkName(name)
	if err != nil {
		return nil, err
	}

	item, err := s.items.Decrement(ctx, name)
	if err != nil {
		s.logger.Error("Error removing item %s: %v", name, err)
		return nil, err
	}

	if item == nil {
		s.logger.Info("Item %s removed", name)
	} else {
		s.logger.Info("Item %s quantity %d", item.Name, item.Quantity)
	}
	s.notifyInventory(ctx)
	return item, nil
}

// HandleCapture records a capture result and adds one unit per detection.
// It matches pipeline.Callback. The update is applied even if ctx is canceled.
func (s *Service) HandleCapture(ctx context.Context, result pipeline.Result) {
	ctx = context.WithoutCancel(ctx)

	capture := &model.Capture{
		ID:         result.CaptureID,
		CapturedAt: result.CapturedAt,
		Detections: result.Detections,
	}
	if result.Artifact != nil {
		capture.ArtifactKey = result.Artifact.Key
		capture.ArtifactURL = result.Artifact.URL
	}
	if result.PublishErr != nil {
		capture.PublishError = result.PublishErr.Error()
	}
	if result.ClassifyErr != nil {
		capture.ClassifyError = result.ClassifyErr.Error()
	}
	if capture.Detections == nil {
		capture.Detections = []model.Detection{}
	}

	if err := s.captures.Insert(ctx, capture); err != nil {
		s.logger.Error("Error saving capture %s: %v", capture.ID, err)
	}

	added := 0
	for _, d := range result.Detections {
		name, err := s.checkName(d.Label)
		if err != nil {
			s.logger.Warning("Skipping detection label %q: %v", d.Label, err)
			continue
		}
		if _, err := s.items.Increment(ctx, name, 1); err != nil {
			s.logger.Error("Error adding detected item %s: %v", name, err)
			continue
		}
		added++
	}

	if added > 0 {
		s.logger.Info("Added %d detected item(s) from capture %s", added, capture.ID)
	}

	if s.notifier != nil {
		s.notifier.Publish(websocket.EventCapture, result)
	}
	s.notifyInventory(ctx)
}

// ListCaptures returns a page of the capture log.
func (s *Service) ListCaptures(ctx context.Context, query dto.CaptureListQuery) (*dto.CaptureList, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, err
	}

	filter := &model.CaptureFilter{
		Label:  NormalizeName(query.Label),
		Limit:  query.Limit,
		Offset: (query.Page - 1) * query.Limit,
	}

	captures, err := s.captures.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.captures.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	labels, err := s.captures.GetAllLabels(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.CaptureList{
		Captures: captures,
		Labels:   labels,
		Page:     query.Page,
		Limit:    query.Limit,
		Total:    total,
	}, nil
}

// GetCapture returns a single capture.
func (s *Service) GetCapture(ctx context.Context, id string) (*model.Capture, error) {
	capture, err := s.captures.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if capture == nil {
		return nil, ErrCaptureNotFound
	}
	return capture, nil
}

// DeleteCapture removes a capture from the log and its image from the blob store.
// Inventory quantities are not changed.
func (s *Service) DeleteCapture(ctx context.Context, id string) error {
	capture, err := s.GetCapture(ctx, id)
	if err != nil {
		return err
	}

	if capture.ArtifactKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, capture.ArtifactKey); err != nil {
			s.logger.Warning("Error deleting image %s: %v", capture.ArtifactKey, err)
		}
	}

	if err := s.captures.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Capture %s deleted", id)
	return nil
}

func (s *Service) notifyInventory(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	items, err := s.items.List(ctx)
	if err != nil {
		s.logger.Error("Error listing items for broadcast: %v", err)
		return
	}
	s.notifier.Publish(websocket.EventInventory, items)
}
