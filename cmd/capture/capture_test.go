package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inventorycam/internal/model"
	"inventorycam/internal/pipeline"
	"inventorycam/internal/publisher"
)

func sampleResult() pipeline.Result {
	return pipeline.Result{
		CaptureID:  "cap-1",
		CapturedAt: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Artifact:   &publisher.Artifact{Key: "images/T1.png", URL: "http://localhost/artifacts/images/T1.png"},
		Detections: []model.Detection{
			{Label: "bottle", Confidence: 0.87, Box: model.Box{X: 10, Y: 10, Width: 50, Height: 80}},
		},
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"y", "z"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"A", "B", "x", "y", "z", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("Table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("Expected empty output without headers")
	}
}

func TestRenderResult(t *testing.T) {
	out := renderResult(sampleResult())
	for _, want := range []string{"cap-1", "images/T1.png", "bottle", "87%", "10,10", "50x80"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	empty := sampleResult()
	empty.Detections = []model.Detection{}
	if out := renderResult(empty); !strings.Contains(out, "No items recognized") {
		t.Errorf("Expected empty message, got:\n%s", out)
	}

	failed := sampleResult()
	failed.Artifact = nil
	failed.PublishErr = errors.New("offline")
	failed.ClassifyErr = errors.New("model missing")
	out = renderResult(failed)
	if !strings.Contains(out, "not published (offline)") || !strings.Contains(out, "Classification failed: model missing") {
		t.Errorf("Expected failures in output, got:\n%s", out)
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResultJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("writeResultJSON failed: %v", err)
	}

	var decoded struct {
		CaptureID  string            `json:"capture_id"`
		Classified bool              `json:"classified"`
		Detections []model.Detection `json:"detections"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.CaptureID != "cap-1" || !decoded.Classified || len(decoded.Detections) != 1 {
		t.Errorf("Unexpected JSON %s", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("Buffer is not a terminal")
	}
}

func TestLoadImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shelf.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	f.Close()

	src, err := loadImageSource(path)
	if err != nil {
		t.Fatalf("loadImageSource failed: %v", err)
	}
	frame, err := src.CurrentFrame()
	if err != nil || frame.Bounds().Dx() != 4 || frame.Bounds().Dy() != 3 {
		t.Errorf("Unexpected frame %v, %v", frame.Bounds(), err)
	}

	if _, err := loadImageSource(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"device", "model", "model-config", "image", "wait", "record", "json"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Missing flag --%s", name)
		}
	}
}
