package handler

import (
	"context"
	"net/http"

	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
	"inventorycam/internal/pipeline"
)

// Orchestrator runs one capture-and-classify operation.
type Orchestrator interface {
	CaptureAndClassify(ctx context.Context, src camera.FrameSource) (pipeline.Result, error)
}

// CaptureHandler handles POST /api/capture. Capture failures are returned as errors;
// publish and classify failures are part of the 200 response body.
func CaptureHandler(orchestrator Orchestrator, src camera.FrameSource, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := orchestrator.CaptureAndClassify(r.Context(), src)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
