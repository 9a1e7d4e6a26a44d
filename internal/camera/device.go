// Package camera owns the camera hardware session and turns its live video
// surface into still images.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrAccessDenied is returned when the device refuses access to the camera.
	ErrAccessDenied = errors.New("camera: access denied")

	// ErrUnavailable is returned when no usable camera is present.
	ErrUnavailable = errors.New("camera: device unavailable")

	// ErrNoActiveSession is returned when a frame is requested while the camera is off.
	ErrNoActiveSession = errors.New("camera: no active session")

	// ErrSurfaceNotReady is returned when the session has not painted its first frame.
	ErrSurfaceNotReady = errors.New("camera: surface not ready")

	// ErrStreamEnded is returned by Stream.ReadFrame once all tracks are stopped.
	ErrStreamEnded = errors.New("camera: stream ended")
)

// Constraints describe the media requested from a Device.
type Constraints struct {
	Video  bool
	Width  int
	Height int
}

// Track is one hardware track of an acquired stream.
type Track interface {
	// Stop releases the track. The hardware indicator turns off once every
	// track of the stream is stopped.
	Stop()
}

// Stream is a live media stream acquired from a Device.
type Stream interface {
	// Tracks returns the hardware tracks backing the stream.
	Tracks() []Track

	// ReadFrame blocks until the next video frame is available. It must
	// return ErrStreamEnded once every track has been stopped.
	ReadFrame() (image.Image, error)
}

// Device is the camera capability the session manager acquires streams from.
type Device interface {
	// RequestAccess acquires a stream matching the constraints. Implementations
	// wrap ErrAccessDenied or ErrUnavailable on failure.
	RequestAccess(ctx context.Context, constraints Constraints) (Stream, error)
}
