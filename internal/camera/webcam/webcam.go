// Package webcam implements camera.Device on top of OpenCV video capture.
package webcam

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"inventorycam/internal/camera"
)

const (
	// emptyReadRetries bounds how many empty frames are tolerated before a read fails.
	emptyReadRetries = 30
	emptyReadBackoff = 10 * time.Millisecond
)

// Device opens a local camera by index ("0") or by path/URL.
type Device struct {
	id string
}

// New creates a device for the given identifier.
func New(id string) *Device {
	return &Device{id: id}
}

// RequestAccess opens the camera and applies the requested resolution.
func (d *Device) RequestAccess(ctx context.Context, constraints camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !constraints.Video {
		return nil, fmt.Errorf("%w: video constraint required", camera.ErrUnavailable)
	}

	source := d.source()
	if err := checkDeviceNode(source); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", camera.ErrUnavailable, d.id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %s not opened", camera.ErrUnavailable, d.id)
	}

	if constraints.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
	}
	if constraints.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))
	}

	return &stream{vc: vc, mat: gocv.NewMat()}, nil
}

// source returns an int index for numeric ids, otherwise the raw id.
func (d *Device) source() interface{} {
	if index, err := strconv.Atoi(d.id); err == nil {
		return index
	}
	return d.id
}

// checkDeviceNode maps permission problems on the V4L2 node to camera errors.
func checkDeviceNode(source interface{}) error {
	index, ok := source.(int)
	if !ok || runtime.GOOS != "linux" {
		return nil
	}

	node := fmt.Sprintf("/dev/video%d", index)
	f, err := os.OpenFile(node, os.O_RDWR, 0)
	switch {
	case err == nil:
		return f.Close()
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s", camera.ErrAccessDenied, node)
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s", camera.ErrUnavailable, node)
	default:
		return fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}
}

// stream is a single-track video stream. gocv.VideoCapture is not safe for
// concurrent use, so reads and Stop share a mutex.
type stream struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

func (s *stream) Tracks() []camera.Track {
	return []camera.Track{track{s}}
}

func (s *stream) ReadFrame() (image.Image, error) {
	for i := 0; i < emptyReadRetries; i++ {
		img, ok, err := s.readOnce()
		if err != nil {
			return nil, err
		}
		if ok {
			return img, nil
		}
		time.Sleep(emptyReadBackoff)
	}
	return nil, fmt.Errorf("webcam: no frame after %d reads", emptyReadRetries)
}

func (s *stream) readOnce() (image.Image, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, camera.ErrStreamEnded
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, false, nil
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, false, fmt.Errorf("webcam: convert frame: %w", err)
	}
	return img, true, nil
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.mat.Close()
	s.vc.Close()
}

type track struct {
	s *stream
}

func (t track) Stop() {
	t.s.close()
}
