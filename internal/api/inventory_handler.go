package api

import (
	"net/http"

	"storefront-be/internal/inventory"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

type InventoryHandler struct {
	Service inventory.Service
}

func NewInventoryHandler(svc inventory.Service) *InventoryHandler {
	return &InventoryHandler{Service: svc}
}

type setStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Service.ListStock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"inventory": levels})
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	level, err := h.Service.GetStock(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, level)
}

func (h *InventoryHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	level, err := h.Service.SetStock(r.Context(), chi.URLParam(r, "productID"), *req.Stock)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, level)
}

func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	level, err := h.Service.AdjustStock(r.Context(), chi.URLParam(r, "productID"), req.Delta)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, level)
}
