package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"inventorycam/internal/dto"
	"inventorycam/internal/logger"
	"inventorycam/internal/model"
)

// InventoryService is the inventory as seen by the HTTP layer.
type InventoryService interface {
	List(ctx context.Context) ([]model.Item, error)
	AddItem(ctx context.Context, name string) (*model.Item, error)
	RemoveItem(ctx context.Context, name string) (*model.Item, error)
}

type itemResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ListInventoryHandler handles GET /api/inventory.
func ListInventoryHandler(svc InventoryService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// AddItemHandler handles POST /api/inventory with body {"name": "..."}.
func AddItemHandler(svc InventoryService, validate *validator.Validate, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeItemRequest(w, r, validate, logger)
		if !ok {
			return
		}

		item, err := svc.AddItem(r.Context(), req.Name)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, itemResponse{Name: item.Name, Quantity: item.Quantity})
	}
}

// RemoveItemHandler handles DELETE /api/inventory. The name comes from the body or
// the name query parameter. A removed item is reported with quantity 0.
func RemoveItemHandler(svc InventoryService, validate *validator.Validate, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ItemRequest
		if name := r.URL.Query().Get("name"); name != "" {
			req.Name = name
			if err := validate.Struct(req); err != nil {
				writeError(w, logger, err)
				return
			}
		} else {
			var ok bool
			if req, ok = decodeItemRequest(w, r, validate, logger); !ok {
				return
			}
		}

		item, err := svc.RemoveItem(r.Context(), req.Name)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		resp := itemResponse{Name: req.Name}
		if item != nil {
			resp = itemResponse{Name: item.Name, Quantity: item.Quantity}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeItemRequest(w http.ResponseWriter, r *http.Request, validate *validator.Validate, logger *logger.Logger) (dto.ItemRequest, bool) {
	var req dto.ItemRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, logger, err)
		return req, false
	}
	return req, true
}
