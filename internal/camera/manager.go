package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"inventorycam/internal/logger"
)

// Manager owns the camera session. At most one session is active at a time and
// the hardware tracks are never exposed outside the manager.
type Manager struct {
	device      Device
	constraints Constraints
	surface     *Surface
	logger      *logger.Logger

	mu      sync.Mutex
	active  bool
	tracks  []Track
	session uint64
}

// NewManager creates a manager that acquires streams from device.
func NewManager(device Device, constraints Constraints, logger *logger.Logger) *Manager {
	constraints.Video = true
	return &Manager{
		device:      device,
		constraints: constraints,
		surface:     NewSurface(),
		logger:      logger,
	}
}

// Start acquires the camera and begins playback into the surface. Calling Start
// while the session is already on returns nil without touching the hardware.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		m.logger.Debug("Camera already on, start ignored")
		return nil
	}

	stream, err := m.device.RequestAccess(ctx, m.constraints)
	if err != nil {
		m.logger.Error("Error accessing the camera: %v", err)
		if !errors.Is(err, ErrAccessDenied) && !errors.Is(err, ErrUnavailable) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	m.tracks = stream.Tracks()
	m.session++
	session := m.session
	m.surface.Attach(stream, func(err error) {
		m.logger.Warning("Camera playback stopped: %v", err)
		// play czeka na powrot z onError, Detach czeka na play
		go m.endSession(session)
	})
	m.active = true

	m.logger.Info("Camera started with %d track(s)", len(m.tracks))
	return nil
}

// Stop releases every hardware track and detaches the surface. It is a no-op
// when the camera is already off.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}
	m.release()
	m.logger.Info("Camera stopped")
}

// endSession turns the camera off after playback failed, unless that session was
// already stopped or replaced.
func (m *Manager) endSession(session uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || m.session != session {
		return
	}
	m.release()
	m.logger.Warning("Camera session ended after playback failure")
}

// release stops every track and detaches the surface. Callers hold m.mu.
func (m *Manager) release() {
	for _, track := range m.tracks {
		track.Stop()
	}
	m.surface.Detach()

	m.tracks = nil
	m.active = false
}

// Close stops the session. Safe to call from teardown paths.
func (m *Manager) Close() error {
	m.Stop()
	return nil
}

// Active reports whether the camera session is on.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// TrackCount returns the number of live hardware tracks.
func (m *Manager) TrackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}

// WaitReady blocks until the active session paints its first frame.
func (m *Manager) WaitReady(ctx context.Context) error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return ErrNoActiveSession
	}
	ready := m.surface.Ready()
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrSurfaceNotReady, ctx.Err())
	}
}

// CurrentFrame returns the frame currently shown on the surface.
func (m *Manager) CurrentFrame() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil, ErrNoActiveSession
	}

	frame, ok := m.surface.Frame()
	if !ok {
		return nil, ErrSurfaceNotReady
	}
	return frame, nil
}
