package camera

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// fakeTrack counts how many times it was stopped.
type fakeTrack struct {
	stream *fakeStream
	stops  atomic.Int32
}

func (t *fakeTrack) Stop() {
	t.stops.Add(1)
	t.stream.end()
}

// fakeStream delivers frames pushed by the test.
type fakeStream struct {
	frames chan image.Image
	ended  chan struct{}
	failed chan error
	once   sync.Once
	tracks []*fakeTrack
}

func newFakeStream(trackCount int) *fakeStream {
	s := &fakeStream{
		frames: make(chan image.Image),
		ended:  make(chan struct{}),
		failed: make(chan error, 1),
	}
	for i := 0; i < trackCount; i++ {
		s.tracks = append(s.tracks, &fakeTrack{stream: s})
	}
	return s
}

func (s *fakeStream) Tracks() []Track {
	tracks := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		tracks = append(tracks, t)
	}
	return tracks
}

func (s *fakeStream) ReadFrame() (image.Image, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-s.ended:
		return nil, ErrStreamEnded
	case err := <-s.failed:
		return nil, err
	}
}

// fail makes the pending ReadFrame return err, like a device that was unplugged.
func (s *fakeStream) fail(err error) {
	s.failed <- err
}

func (s *fakeStream) end() {
	s.once.Do(func() { close(s.ended) })
}

// push paints one frame; it blocks until the surface reads it.
func (s *fakeStream) push(img image.Image) {
	s.frames <- img
}

// fakeDevice hands out a new stream per successful request.
type fakeDevice struct {
	mu         sync.Mutex
	err        error
	trackCount int
	requests   int
	streams    []*fakeStream
}

func (d *fakeDevice) RequestAccess(ctx context.Context, c Constraints) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.requests++
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeStream(d.trackCount)
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeDevice) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[len(d.streams)-1]
}

func solidFrame(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
