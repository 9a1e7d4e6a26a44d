// Package ssd runs a COCO-trained SSD MobileNet network through OpenCV DNN.
package ssd

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"inventorycam/internal/classifier"
	"inventorycam/internal/logger"
)

// Loader reads the frozen graph and its text config from disk.
type Loader struct {
	ModelPath  string
	ConfigPath string
	Logger     *logger.Logger
}

// Load implements classifier.Loader.
func (l Loader) Load(ctx context.Context) (classifier.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(l.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", l.ModelPath)
	}
	if _, err := os.Stat(l.ConfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", l.ConfigPath)
	}

	net := gocv.ReadNet(l.ModelPath, l.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	if l.Logger != nil {
		l.Logger.Info("Detection network initialized from %s", l.ModelPath)
	}
	return &Model{net: net}, nil
}

// Model is a loaded network. gocv.Net is not safe for concurrent use.
type Model struct {
	mu  sync.Mutex
	net gocv.Net
}

// Detect decodes the image and runs one forward pass.
func (m *Model) Detect(ctx context.Context, encoded []byte) ([]classifier.Prediction, error) {
	mat, err := gocv.IMDecode(encoded, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	// Parametry wejscia sieci ssd coco
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	cols := float64(mat.Cols())
	rows := float64(mat.Rows())

	// [ batch_id, class_id, confidence, x1, y1, x2, y2 ]
	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	predictions := make([]classifier.Prediction, 0, reshaped.Rows())
	for i := 0; i < reshaped.Rows(); i++ {
		label, ok := Label(int(reshaped.GetFloatAt(i, 1)))
		if !ok {
			continue
		}

		x1 := clamp(float64(reshaped.GetFloatAt(i, 3))) * cols
		y1 := clamp(float64(reshaped.GetFloatAt(i, 4))) * rows
		x2 := clamp(float64(reshaped.GetFloatAt(i, 5))) * cols
		y2 := clamp(float64(reshaped.GetFloatAt(i, 6))) * rows

		predictions = append(predictions, classifier.Prediction{
			Class: label,
			Score: float64(reshaped.GetFloatAt(i, 2)),
			BBox:  [4]float64{x1, y1, x2 - x1, y2 - y1},
		})
	}

	return predictions, nil
}

// Close releases the network.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
