// Package devicelock guards a camera.Device with an advisory file lock so the
// server and the one-shot CLI never hold the same camera at once.
package devicelock

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gofrs/flock"

	"inventorycam/internal/camera"
)

// Device wraps another device. The lock is taken in RequestAccess and released
// once every track of the returned stream is stopped.
type Device struct {
	inner camera.Device
	path  string
}

// New guards inner with a lock file at path.
func New(inner camera.Device, path string) *Device {
	return &Device{inner: inner, path: path}
}

// RequestAccess implements camera.Device.
func (d *Device) RequestAccess(ctx context.Context, constraints camera.Constraints) (camera.Stream, error) {
	lock := flock.New(d.path)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock %s: %v", camera.ErrUnavailable, d.path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: camera in use by another process", camera.ErrUnavailable)
	}

	stream, err := d.inner.RequestAccess(ctx, constraints)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	ls := &lockedStream{inner: stream, lock: lock}
	inner := stream.Tracks()
	ls.remaining = len(inner)
	ls.tracks = make([]camera.Track, len(inner))
	for i, t := range inner {
		ls.tracks[i] = &lockedTrack{inner: t, stream: ls}
	}
	if ls.remaining == 0 {
		lock.Unlock()
	}
	return ls, nil
}

type lockedStream struct {
	inner     camera.Stream
	lock      *flock.Flock
	tracks    []camera.Track
	mu        sync.Mutex
	remaining int
}

func (s *lockedStream) Tracks() []camera.Track {
	return s.tracks
}

func (s *lockedStream) ReadFrame() (image.Image, error) {
	return s.inner.ReadFrame()
}

func (s *lockedStream) trackStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remaining--
	if s.remaining == 0 {
		s.lock.Unlock()
	}
}

type lockedTrack struct {
	inner  camera.Track
	stream *lockedStream
	once   sync.Once
}

func (t *lockedTrack) Stop() {
	t.once.Do(func() {
		t.inner.Stop()
		t.stream.trackStopped()
	})
}
