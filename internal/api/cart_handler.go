package api

import (
	"net/http"
	"strings"

	"storefront-be/internal/cart"
	"storefront-be/internal/pricing"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxSessionIDLen = 128

type CartHandler struct {
	Service cart.Service
	Engine  *pricing.Engine
}

func NewCartHandler(svc cart.Service, engine *pricing.Engine) *CartHandler {
	return &CartHandler{Service: svc, Engine: engine}
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Name      string `json:"name" validate:"required,max=200"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0,max=10000000000"`
	Color     string `json:"color" validate:"max=64"`
	Size      string `json:"size" validate:"max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=1000"`
}

// updateItemRequest sets Quantity when present, otherwise applies Delta.
type updateItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=0,max=1000"`
	Delta     int    `json:"delta"`
}

type discountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type cartDiscountResponse struct {
	Cart     *cart.CartState         `json:"cart"`
	Discount *pricing.DiscountResult `json:"discount"`
}

type displayQuote struct {
	pricing.Quote
	Formatted map[string]string `json:"formatted"`
}

type cartQuoteResponse struct {
	Cart    *cart.CartState `json:"cart"`
	Quote   pricing.Quote   `json:"quote"`
	Display *displayQuote   `json:"display,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	state, err := h.Service.GetCart(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	state, err := h.Service.AddItem(r.Context(), sessionID, cart.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Color:     req.Color,
		Size:      req.Size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	state, err := h.Service.UpdateItem(r.Context(), sessionID, cart.UpdateItemParams{
		Key:      cart.ItemKey{ProductID: req.ProductID, Color: req.Color, Size: req.Size},
		Quantity: req.Quantity,
		Delta:    req.Delta,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	key := cart.ItemKey{ProductID: q.Get("product_id"), Color: q.Get("color"), Size: q.Get("size")}
	if key.ProductID == "" {
		writeError(w, r, &requestError{msg: "validation failed", details: map[string]string{"product_id": "is required"}})
		return
	}

	state, err := h.Service.RemoveItem(r.Context(), sessionID, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.ClearCart(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	state, res, err := h.Service.ApplyDiscount(r.Context(), sessionID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cartDiscountResponse{Cart: state, Discount: res})
}

func (h *CartHandler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}
	state, err := h.Service.RemoveDiscount(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, state)
}

// Quote prices the cart in the base currency and, when currency is given,
// adds a localized copy with display strings.
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionParam(w, r)
	if !ok {
		return
	}

	method, err := pricing.ParseShippingMethod(r.URL.Query().Get("method"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var display pricing.Currency
	if raw := r.URL.Query().Get("currency"); raw != "" {
		display, err = pricing.ParseCurrency(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	state, q, err := h.Service.Quote(r.Context(), sessionID, method)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := cartQuoteResponse{Cart: state, Quote: q}
	if display != "" {
		localized, err := h.Engine.Localize(q, display)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Display = &displayQuote{Quote: localized, Formatted: formatQuote(localized)}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func formatQuote(q pricing.Quote) map[string]string {
	return map[string]string{
		"subtotal": pricing.FormatPrice(q.Subtotal, q.Currency),
		"shipping": pricing.FormatPrice(q.ShippingCost, q.Currency),
		"discount": pricing.FormatPrice(q.Discount, q.Currency),
		"total":    pricing.FormatPrice(q.Total, q.Currency),
	}
}

func sessionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if id == "" || len(id) > maxSessionIDLen {
		writeError(w, r, cart.ErrInvalidSession)
		return "", false
	}
	return id, true
}
