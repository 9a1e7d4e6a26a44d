package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"inventorycam/internal/dto"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
	"inventorycam/internal/pipeline"
	"inventorycam/internal/publisher"
	"inventorycam/internal/repository/sqlite"
	"inventorycam/internal/service/websocket"
)

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) Publish(eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

type fakeDeleter struct {
	deleted []string
}

func (d *fakeDeleter) Delete(ctx context.Context, key string) error {
	d.deleted = append(d.deleted, key)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeNotifier, *fakeDeleter) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "inventory.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	notifier := &fakeNotifier{}
	deleter := &fakeDeleter{}
	s := NewService(sqlite.NewItemRepository(db), sqlite.NewCaptureRepository(db), deleter, notifier, nil, logger.Discard())
	return s, notifier, deleter
}

func TestService_AddAndRemove(t *testing.T) {
	s, notifier, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, "  Apple "); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	item, err := s.AddItem(ctx, "apple")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Name != "apple" || item.Quantity != 2 {
		t.Errorf("Expected apple x2, got %+v", item)
	}

	item, err = s.RemoveItem(ctx, "APPLE")
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if item == nil || item.Quantity != 1 {
		t.Errorf("Expected apple x1, got %+v", item)
	}

	item, err = s.RemoveItem(ctx, "apple")
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if item != nil {
		t.Errorf("Item at quantity 1 should be deleted, got %+v", item)
	}

	items, _ := s.List(ctx)
	if len(items) != 0 {
		t.Errorf("Expected empty inventory, got %+v", items)
	}
	if len(notifier.events) != 4 {
		t.Errorf("Expected one inventory event per change, got %d", len(notifier.events))
	}
}

func TestService_RejectsBadNames(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if _, err := s.RemoveItem(ctx, ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if _, err := s.AddItem(ctx, strings.Repeat("x", 65)); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}

func TestService_RemoveUnknownIsNoop(t *testing.T) {
	s, _, _ := newTestService(t)

	item, err := s.RemoveItem(context.Background(), "ghost")
	if err != nil || item != nil {
		t.Errorf("Expected nil, nil, got %+v, %v", item, err)
	}
}

func TestService_HandleCapture(t *testing.T) {
	s, notifier, _ := newTestService(t)
	ctx := context.Background()

	result := pipeline.Result{
		CaptureID:  "cap-1",
		CapturedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Artifact:   &publisher.Artifact{Key: "images/T1.png", URL: "http://localhost/artifacts/images/T1.png"},
		Detections: []model.Detection{
			{Label: "bottle", Confidence: 0.87, Box: model.Box{X: 10, Y: 10, Width: 50, Height: 80}},
			{Label: "cup", Confidence: 0.8},
			{Label: "bottle", Confidence: 0.6},
		},
	}

	s.HandleCapture(ctx, result)

	items, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	quantities := map[string]int{}
	for _, it := range items {
		quantities[it.Name] = it.Quantity
	}
	if quantities["bottle"] != 2 || quantities["cup"] != 1 {
		t.Errorf("Expected one unit per detection, got %v", quantities)
	}

	capture, err := s.GetCapture(ctx, "cap-1")
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if capture.ArtifactKey != "images/T1.png" || len(capture.Detections) != 3 {
		t.Errorf("Unexpected capture %+v", capture)
	}

	if len(notifier.events) != 2 || notifier.events[0] != websocket.EventCapture || notifier.events[1] != websocket.EventInventory {
		t.Errorf("Expected [capture inventory] events, got %v", notifier.events)
	}
}

func TestService_HandleCaptureRecordsFailures(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	s.HandleCapture(ctx, pipeline.Result{
		CaptureID:   "cap-2",
		CapturedAt:  time.Now(),
		PublishErr:  errors.New("offline"),
		ClassifyErr: errors.New("model failed"),
	})

	capture, err := s.GetCapture(ctx, "cap-2")
	if err != nil {
		t.Fatalf("GetCapture failed: %v", err)
	}
	if capture.Published() {
		t.Error("Capture without artifact should not be published")
	}
	if capture.PublishError != "offline" || capture.ClassifyError != "model failed" {
		t.Errorf("Failures not recorded: %+v", capture)
	}

	items, _ := s.List(ctx)
	if len(items) != 0 {
		t.Errorf("Failed classification should not change inventory, got %+v", items)
	}
}

func TestService_ListAndDeleteCaptures(t *testing.T) {
	s, _, deleter := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	for i, label := range []string{"cup", "bottle", "cup"} {
		s.HandleCapture(ctx, pipeline.Result{
			CaptureID:  string(rune('a' + i)),
			CapturedAt: base.Add(time.Duration(i) * time.Minute),
			Artifact:   &publisher.Artifact{Key: "images/" + string(rune('a'+i)) + ".png", URL: "u"},
			Detections: []model.Detection{{Label: label, Confidence: 0.9}},
		})
	}

	page, err := s.ListCaptures(ctx, dto.CaptureListQuery{Label: "CUP", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListCaptures failed: %v", err)
	}
	if page.Total != 2 || len(page.Captures) != 2 {
		t.Errorf("Expected 2 cup captures, got total=%d len=%d", page.Total, len(page.Captures))
	}
	if len(page.Labels) != 2 {
		t.Errorf("Expected labels [bottle cup], got %v", page.Labels)
	}

	if _, err := s.ListCaptures(ctx, dto.CaptureListQuery{Page: 0, Limit: 10}); err == nil {
		t.Error("Expected validation error for page 0")
	}

	if err := s.DeleteCapture(ctx, "a"); err != nil {
		t.Fatalf("DeleteCapture failed: %v", err)
	}
	if len(deleter.deleted) != 1 || deleter.deleted[0] != "images/a.png" {
		t.Errorf("Expected blob images/a.png deleted, got %v", deleter.deleted)
	}
	if err := s.DeleteCapture(ctx, "a"); !errors.Is(err, ErrCaptureNotFound) {
		t.Errorf("Expected ErrCaptureNotFound, got %v", err)
	}
}

func TestService_HandleCaptureIgnoresCanceledContext(t *testing.T) {
	s, _, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.HandleCapture(ctx, pipeline.Result{
		CaptureID:  "cap-gone",
		CapturedAt: time.Now(),
		Detections: []model.Detection{{Label: "cup", Confidence: 0.9}},
	})

	items, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "cup" || items[0].Quantity != 1 {
		t.Errorf("Expected cup x1, got %+v", items)
	}
	if _, err := s.GetCapture(context.Background(), "cap-gone"); err != nil {
		t.Errorf("Capture not logged: %v", err)
	}
}
