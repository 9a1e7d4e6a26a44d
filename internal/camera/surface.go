package camera

import (
	"errors"
	"image"
	"sync"
)

// Surface holds the most recent frame of an attached stream, like a video element
// bound to a media stream.
type Surface struct {
	mu       sync.RWMutex
	frame    image.Image
	ready    chan struct{}
	stop     chan struct{}
	done     chan struct{}
	attached bool
}

// NewSurface creates a detached surface.
func NewSurface() *Surface {
	return &Surface{ready: make(chan struct{})}
}

// Attach binds the stream to the surface and starts playback. When playback ends
// for any reason other than Detach the surface is cleared, and onError is called
// unless the stream simply ended.
func (s *Surface) Attach(stream Stream, onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return
	}

	s.frame = nil
	s.ready = make(chan struct{})
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.attached = true

	go s.play(stream, onError, s.ready, s.stop, s.done)
}

// play copies frames from the stream into the surface until the stream ends.
func (s *Surface) play(stream Stream, onError func(error), ready, stop, done chan struct{}) {
	defer close(done)

	painted := false
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := stream.ReadFrame()
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}

			// Martwy strumien nie moze zostawic ostatniej klatki na powierzchni
			s.mu.Lock()
			s.frame = nil
			s.mu.Unlock()

			if onError != nil && !errors.Is(err, ErrStreamEnded) {
				onError(err)
			}
			return
		}

		s.mu.Lock()
		select {
		case <-stop:
			s.mu.Unlock()
			return
		default:
		}
		s.frame = frame
		s.mu.Unlock()

		if !painted {
			close(ready)
			painted = true
		}
	}
}

// Detach stops playback and clears the surface. The stream's tracks must already
// be stopped so that a pending ReadFrame returns.
func (s *Surface) Detach() {
	s.mu.Lock()
	if !s.attached {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	s.frame = nil
	s.attached = false
	s.mu.Unlock()
}

// Frame returns the latest painted frame.
func (s *Surface) Frame() (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.frame != nil
}

// Ready returns a channel closed once the current attachment paints its first frame.
func (s *Surface) Ready() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}
