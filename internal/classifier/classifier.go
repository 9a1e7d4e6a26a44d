// Package classifier runs a pre-trained object detection model against captured stills.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
)

var (
	// ErrLoadFailed is returned when the model cannot be loaded.
	ErrLoadFailed = errors.New("classifier: model load failed")

	// ErrInferenceFailed is returned when the model fails while detecting.
	ErrInferenceFailed = errors.New("classifier: inference failed")
)

// Defaults match the coco-ssd detect defaults.
const (
	DefaultMinScore      = 0.5
	DefaultMaxDetections = 20
)

// Prediction is a raw model output: class name, score and box as [x, y, w, h]
// in pixels of the input image.
type Prediction struct {
	Class string
	Score float64
	BBox  [4]float64
}

// Model runs inference on an encoded image.
type Model interface {
	Detect(ctx context.Context, encoded []byte) ([]Prediction, error)
	Close() error
}

// Loader loads a Model.
type Loader interface {
	Load(ctx context.Context) (Model, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Model, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) (Model, error) {
	return f(ctx)
}

// Options tune how predictions are turned into detections.
type Options struct {
	MinScore      float64
	MaxDetections int
}

// Adapter loads the model once per process and turns predictions into detections.
type Adapter struct {
	loader Loader
	opts   Options
	logger *logger.Logger

	mu    sync.Mutex
	model Model
}

// New creates an adapter. The model is not loaded until first use.
func New(loader Loader, opts Options, logger *logger.Logger) *Adapter {
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.MaxDetections <= 0 {
		opts.MaxDetections = DefaultMaxDetections
	}
	return &Adapter{loader: loader, opts: opts, logger: logger}
}

// EnsureModelLoaded loads the model if needed. Once loaded, further calls return
// immediately. A failed load is attempted again on the next call.
func (a *Adapter) EnsureModelLoaded(ctx context.Context) error {
	_, err := a.ensure(ctx)
	return err
}

func (a *Adapter) ensure(ctx context.Context) (Model, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model != nil {
		return a.model, nil
	}

	m, err := a.loader.Load(ctx)
	if err != nil {
		a.logger.Error("Error loading detection model: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	a.model = m
	a.logger.Info("Detection model loaded")
	return m, nil
}

// Loaded reports whether the model has been loaded.
func (a *Adapter) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model != nil
}

// Classify detects objects in the still. An empty result is not an error.
func (a *Adapter) Classify(ctx context.Context, still camera.StillImage) ([]model.Detection, error) {
	m, err := a.ensure(ctx)
	if err != nil {
		return nil, err
	}

	predictions, err := m.Detect(ctx, still.PNG())
	if err != nil {
		a.logger.Error("Error detecting objects in image: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	detections := a.toDetections(predictions)
	a.logger.Info("Detected %d object(s): %v", len(detections), model.Labels(detections))
	return detections, nil
}

func (a *Adapter) toDetections(predictions []Prediction) []model.Detection {
	detections := make([]model.Detection, 0, len(predictions))
	for _, p := range predictions {
		if p.Score < a.opts.MinScore || p.Class == "" {
			continue
		}
		detections = append(detections, model.Detection{
			Label:      p.Class,
			Confidence: math.Min(math.Max(p.Score, 0), 1),
			Box: model.Box{
				X:      int(math.Round(p.BBox[0])),
				Y:      int(math.Round(p.BBox[1])),
				Width:  int(math.Round(p.BBox[2])),
				Height: int(math.Round(p.BBox[3])),
			},
		})
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	if len(detections) > a.opts.MaxDetections {
		detections = detections[:a.opts.MaxDetections]
	}
	return detections
}

// Close releases the model if it was loaded.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.model == nil {
		return nil
	}
	err := a.model.Close()
	a.model = nil
	return err
}
