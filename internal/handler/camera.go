package handler

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"

	"inventorycam/internal/dto"
	"inventorycam/internal/logger"
	"inventorycam/internal/service/websocket"
)

// CameraController is the device session as seen by the HTTP layer.
type CameraController interface {
	Start(ctx context.Context) error
	Stop()
	Active() bool
	TrackCount() int
	CurrentFrame() (image.Image, error)
}

// ModelStatus reports whether the detection model is loaded.
type ModelStatus interface {
	Loaded() bool
}

// Notifier receives camera events.
type Notifier interface {
	Publish(eventType string, payload interface{})
}

func cameraStatus(cam CameraController, model ModelStatus) dto.CameraStatus {
	status := dto.CameraStatus{Active: cam.Active(), Tracks: cam.TrackCount()}
	if model != nil {
		status.ModelLoaded = model.Loaded()
	}
	return status
}

// CameraStartHandler handles POST /api/camera/start.
func CameraStartHandler(cam CameraController, model ModelStatus, notifier Notifier, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cam.Start(r.Context()); err != nil {
			logger.Warning("Camera start failed: %v", err)
			writeError(w, logger, err)
			return
		}

		status := cameraStatus(cam, model)
		if notifier != nil {
			notifier.Publish(websocket.EventCamera, status)
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// CameraStopHandler handles POST /api/camera/stop. Stopping an inactive camera succeeds.
func CameraStopHandler(cam CameraController, model ModelStatus, notifier Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam.Stop()

		status := cameraStatus(cam, model)
		if notifier != nil {
			notifier.Publish(websocket.EventCamera, status)
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// CameraStatusHandler handles GET /api/camera/status.
func CameraStatusHandler(cam CameraController, model ModelStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cameraStatus(cam, model))
	}
}

// CameraPreviewHandler handles GET /api/camera/preview and returns the current
// frame as JPEG.
func CameraPreviewHandler(cam CameraController, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame, err := cam.CurrentFrame()
		if err != nil {
			writeError(w, logger, err)
			return
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: 80}); err != nil {
			writeError(w, logger, err)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(buf.Bytes())
	}
}
