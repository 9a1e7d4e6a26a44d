package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
	"inventorycam/internal/service/inventory"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it as JSON.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, camera.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, camera.ErrNoActiveSession), errors.Is(err, camera.ErrSurfaceNotReady):
		return http.StatusConflict
	case errors.Is(err, camera.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, inventory.ErrEmptyName), errors.Is(err, inventory.ErrInvalidName), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, inventory.ErrCaptureNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
