package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"inventorycam/internal/dto"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
)

// CaptureLog is the capture history as seen by the HTTP layer.
type CaptureLog interface {
	ListCaptures(ctx context.Context, query dto.CaptureListQuery) (*dto.CaptureList, error)
	GetCapture(ctx context.Context, id string) (*model.Capture, error)
	DeleteCapture(ctx context.Context, id string) error
}

// ListCapturesHandler handles GET /api/captures?label=&page=&limit=.
func ListCapturesHandler(log CaptureLog, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := dto.CaptureListQuery{
			Label: q.Get("label"),
			Page:  atoiDefault(q.Get("page"), 1),
			Limit: atoiDefault(q.Get("limit"), 24),
		}

		list, err := log.ListCaptures(r.Context(), query)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetCaptureHandler handles GET /api/captures/{id}.
func GetCaptureHandler(log CaptureLog, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		capture, err := log.GetCapture(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, capture)
	}
}

// DeleteCaptureHandler handles DELETE /api/captures/{id} and DELETE /api/captures?id=.
func DeleteCaptureHandler(log CaptureLog, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if id == "" {
			id = r.URL.Query().Get("id")
		}
		if id == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing capture id"})
			return
		}

		if err := log.DeleteCapture(r.Context(), id); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
