package classifier

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
)

type fakeModel struct {
	predictions []Prediction
	err         error
	calls       int
	closed      bool
}

func (m *fakeModel) Detect(ctx context.Context, encoded []byte) ([]Prediction, error) {
	m.calls++
	if len(encoded) == 0 {
		return nil, errors.New("empty input")
	}
	return m.predictions, m.err
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

type countingLoader struct {
	model *fakeModel
	fails int
	loads int
}

func (l *countingLoader) Load(ctx context.Context) (Model, error) {
	l.loads++
	if l.loads <= l.fails {
		return nil, errors.New("weights download failed")
	}
	return l.model, nil
}

func testStill(t *testing.T) camera.StillImage {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	still, err := camera.NewStillImage(buf.Bytes(), time.Now())
	if err != nil {
		t.Fatalf("Failed to build still: %v", err)
	}
	return still
}

func TestAdapter_EnsureModelLoadedIsIdempotent(t *testing.T) {
	loader := &countingLoader{model: &fakeModel{}}
	a := New(loader, Options{}, logger.Discard())

	for i := 0; i < 3; i++ {
		if err := a.EnsureModelLoaded(context.Background()); err != nil {
			t.Fatalf("EnsureModelLoaded #%d failed: %v", i, err)
		}
	}

	if loader.loads != 1 {
		t.Errorf("Expected a single load, got %d", loader.loads)
	}
	if !a.Loaded() {
		t.Error("Adapter should report the model as loaded")
	}
}

func TestAdapter_LoadFailureIsRetried(t *testing.T) {
	loader := &countingLoader{model: &fakeModel{}, fails: 1}
	a := New(loader, Options{}, logger.Discard())

	if err := a.EnsureModelLoaded(context.Background()); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("Expected ErrLoadFailed, got %v", err)
	}
	if a.Loaded() {
		t.Error("Model should not be marked loaded after failure")
	}

	if err := a.EnsureModelLoaded(context.Background()); err != nil {
		t.Fatalf("Second load should succeed, got %v", err)
	}
	if loader.loads != 2 {
		t.Errorf("Expected 2 load attempts, got %d", loader.loads)
	}
}

func TestAdapter_ClassifyAutoLoads(t *testing.T) {
	m := &fakeModel{predictions: []Prediction{
		{Class: "bottle", Score: 0.87, BBox: [4]float64{10, 10, 50, 80}},
	}}
	loader := &countingLoader{model: m}
	a := New(loader, Options{}, logger.Discard())

	detections, err := a.Classify(context.Background(), testStill(t))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if loader.loads != 1 {
		t.Errorf("Classify should load the model once, got %d loads", loader.loads)
	}
	if len(detections) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(detections))
	}
	d := detections[0]
	if d.Label != "bottle" || d.Confidence != 0.87 {
		t.Errorf("Unexpected detection %+v", d)
	}
	if d.Box.X != 10 || d.Box.Y != 10 || d.Box.Width != 50 || d.Box.Height != 80 {
		t.Errorf("Unexpected box %+v", d.Box)
	}
}

func TestAdapter_ClassifyFiltersAndCaps(t *testing.T) {
	m := &fakeModel{predictions: []Prediction{
		{Class: "cup", Score: 0.6},
		{Class: "person", Score: 0.3},
		{Class: "bowl", Score: 0.95},
		{Class: "banana", Score: 0.7},
	}}
	a := New(&countingLoader{model: m}, Options{MinScore: 0.5, MaxDetections: 2}, logger.Discard())

	detections, err := a.Classify(context.Background(), testStill(t))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if len(detections) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(detections))
	}
	if detections[0].Label != "bowl" || detections[1].Label != "banana" {
		t.Errorf("Expected [bowl banana] by confidence, got [%s %s]", detections[0].Label, detections[1].Label)
	}
}

func TestAdapter_EmptyResultIsNotAnError(t *testing.T) {
	a := New(&countingLoader{model: &fakeModel{}}, Options{}, logger.Discard())

	detections, err := a.Classify(context.Background(), testStill(t))
	if err != nil {
		t.Fatalf("Empty result should not be an error, got %v", err)
	}
	if detections == nil || len(detections) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", detections)
	}
}

func TestAdapter_InferenceFailure(t *testing.T) {
	m := &fakeModel{err: errors.New("tensor shape mismatch")}
	a := New(&countingLoader{model: m}, Options{}, logger.Discard())

	_, err := a.Classify(context.Background(), testStill(t))
	if !errors.Is(err, ErrInferenceFailed) {
		t.Fatalf("Expected ErrInferenceFailed, got %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !m.closed {
		t.Error("Close should release the model")
	}
}

func TestAdapter_LoadFailurePropagatesFromClassify(t *testing.T) {
	a := New(LoaderFunc(func(ctx context.Context) (Model, error) {
		return nil, errors.New("no network")
	}), Options{}, logger.Discard())

	if _, err := a.Classify(context.Background(), testStill(t)); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("Expected ErrLoadFailed, got %v", err)
	}
}
