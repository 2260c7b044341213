package api

import (
	"errors"
	"net/http"

	"storefront-be/internal/pricing"
	"storefront-be/internal/utils"
)

// PricingHandler exposes the backend-owned pricing tables so clients never
// hardcode codes, thresholds or shipping costs.
type PricingHandler struct {
	Engine         *pricing.Engine
	ChargeCurrency pricing.Currency
}

func NewPricingHandler(engine *pricing.Engine, charge pricing.Currency) *PricingHandler {
	return &PricingHandler{Engine: engine, ChargeCurrency: charge}
}

type pricingConfigResponse struct {
	BaseCurrency   pricing.Currency       `json:"base_currency"`
	ChargeCurrency pricing.Currency       `json:"charge_currency"`
	Shipping       pricing.ShippingRates  `json:"shipping"`
	Currencies     []pricing.CurrencyInfo `json:"currencies"`
}

func (h *PricingHandler) Config(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, pricingConfigResponse{
		BaseCurrency:   h.Engine.BaseCurrency(),
		ChargeCurrency: h.ChargeCurrency,
		Shipping:       h.Engine.ShippingRates(),
		Currencies:     pricing.SupportedCurrencies(),
	})
}

type validateDiscountRequest struct {
	Code     string `json:"code" validate:"required,max=64"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

type validateDiscountResponse struct {
	Valid   bool                    `json:"valid"`
	Message string                  `json:"message,omitempty"`
	Result  *pricing.DiscountResult `json:"result,omitempty"`
}

// ValidateDiscount reports the effect of a code on a subtotal. An unknown
// code is a normal answer, not a request error.
func (h *PricingHandler) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Engine.ApplyDiscount(req.Code, req.Subtotal)
	if errors.Is(err, pricing.ErrInvalidDiscountCode) {
		utils.WriteJSON(w, http.StatusOK, validateDiscountResponse{Valid: false, Message: err.Error()})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, validateDiscountResponse{Valid: true, Result: &res})
}
