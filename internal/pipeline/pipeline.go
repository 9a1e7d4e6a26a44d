// Package pipeline runs capture, publish and classify as one operation and hands a
// single consolidated result to the caller.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
	"inventorycam/internal/publisher"
)

// Capturer turns the current frame of a source into a still image.
type Capturer interface {
	Capture(src camera.FrameSource) (camera.StillImage, error)
}

// Publisher uploads a still image and returns its durable reference.
type Publisher interface {
	Publish(ctx context.Context, still camera.StillImage) (publisher.Artifact, error)
}

// Classifier detects objects in a still image.
type Classifier interface {
	Classify(ctx context.Context, still camera.StillImage) ([]model.Detection, error)
}

// Callback receives the result of every capture that produced an image.
type Callback func(ctx context.Context, result Result)

// Result is the consolidated outcome of one capture.
type Result struct {
	CaptureID   string
	CapturedAt  time.Time
	Artifact    *publisher.Artifact
	Detections  []model.Detection
	PublishErr  error
	ClassifyErr error
}

// Classified reports whether classification ran to completion. A classified result
// with no detections means nothing was recognized.
func (r Result) Classified() bool {
	return r.ClassifyErr == nil
}

// ArtifactURL returns the published URL or an empty string.
func (r Result) ArtifactURL() string {
	if r.Artifact == nil {
		return ""
	}
	return r.Artifact.URL
}

// MarshalJSON renders errors as strings.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		CaptureID     string              `json:"capture_id"`
		CapturedAt    time.Time           `json:"captured_at"`
		Artifact      *publisher.Artifact `json:"artifact"`
		Detections    []model.Detection   `json:"detections"`
		Classified    bool                `json:"classified"`
		PublishError  string              `json:"publish_error,omitempty"`
		ClassifyError string              `json:"classify_error,omitempty"`
	}{
		CaptureID:  r.CaptureID,
		CapturedAt: r.CapturedAt,
		Artifact:   r.Artifact,
		Detections: r.Detections,
		Classified: r.Classified(),
	}
	if out.Detections == nil {
		out.Detections = []model.Detection{}
	}
	if r.PublishErr != nil {
		out.PublishError = r.PublishErr.Error()
	}
	if r.ClassifyErr != nil {
		out.ClassifyError = r.ClassifyErr.Error()
	}
	return json.Marshal(out)
}

// Orchestrator runs one capture at a time.
type Orchestrator struct {
	capturer   Capturer
	publisher  Publisher
	classifier Classifier
	callback   Callback
	logger     *logger.Logger

	mu    sync.Mutex
	newID func() string
}

// New creates an orchestrator. callback may be nil.
func New(capturer Capturer, publisher Publisher, classifier Classifier, callback Callback, logger *logger.Logger) *Orchestrator {
	return &Orchestrator{
		capturer:   capturer,
		publisher:  publisher,
		classifier: classifier,
		callback:   callback,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// CaptureAndClassify captures a still from src, then publishes and classifies it
// independently. A capture failure is returned and the callback is not invoked.
// Publish and classify failures are recorded in the result; the callback then runs
// exactly once with it. A capture that has started is not aborted when ctx is
// canceled; only ctx values reach the store, the model and the callback.
func (o *Orchestrator) CaptureAndClassify(ctx context.Context, src camera.FrameSource) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	still, err := o.capturer.Capture(src)
	if err != nil {
		o.logger.Error("Error capturing image: %v", err)
		return Result{}, fmt.Errorf("capture: %w", err)
	}

	result := Result{
		CaptureID:  o.newID(),
		CapturedAt: still.CapturedAt(),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		artifact, err := o.publisher.Publish(ctx, still)
		if err != nil {
			o.logger.Error("Error uploading image: %v", err)
			result.PublishErr = err
			return
		}
		result.Artifact = &artifact
	}()

	go func() {
		defer wg.Done()
		detections, err := o.classifier.Classify(ctx, still)
		if err != nil {
			o.logger.Error("Error classifying image: %v", err)
			result.ClassifyErr = err
			result.Detections = []model.Detection{}
			return
		}
		result.Detections = detections
	}()

	wg.Wait()

	o.logger.Info("Capture %s finished: published=%t, detections=%d", result.CaptureID, result.Artifact != nil, len(result.Detections))

	if o.callback != nil {
		o.callback(ctx, result)
	}
	return result, nil
}
