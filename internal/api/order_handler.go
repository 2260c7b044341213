package api

import (
	"errors"
	"net/http"
	"strings"

	"storefront-be/internal/order"
	"storefront-be/internal/pricing"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderHandler struct {
	Service order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{Service: svc}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Name      string `json:"name" validate:"required,max=200"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0,max=10000000000"`
	Color     string `json:"color" validate:"max=64"`
	Size      string `json:"size" validate:"max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=1000"`
}

type customerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
}

type createOrderRequest struct {
	Items          []orderItemRequest `json:"items" validate:"max=100,dive"`
	ShippingMethod string             `json:"shipping_method"`
	DiscountCode   string             `json:"discount_code"`
	Currency       string             `json:"currency"`
	Customer       customerRequest    `json:"customer"`
}

func (req createOrderRequest) toInput() (order.CreateOrderInput, error) {
	input := order.CreateOrderInput{
		ShippingMethod: pricing.ShippingMethod(req.ShippingMethod),
		DiscountCode:   req.DiscountCode,
		Customer: order.Customer{
			Name:    strings.TrimSpace(req.Customer.Name),
			Email:   utils.NormalizeEmail(req.Customer.Email),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: strings.TrimSpace(req.Customer.Address),
		},
	}
	if req.Currency != "" {
		c, err := pricing.ParseCurrency(req.Currency)
		if err != nil {
			return order.CreateOrderInput{}, err
		}
		input.ChargeCurrency = c
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Color:     it.Color,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}
	return input, nil
}

type paymentInfo struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
}

type createOrderResponse struct {
	Order   *order.Order `json:"order"`
	Payment paymentInfo  `json:"payment"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Service.CreateOrder(r.Context(), input)
	if err != nil {
		// The order exists; the client may retry payment with its id.
		if res != nil && errors.Is(err, order.ErrPaymentInitFailed) {
			utils.WriteJSON(w, http.StatusBadGateway, map[string]any{
				"error":     "payment provider unavailable",
				"order_id":  res.Order.ID,
				"reference": res.Reference,
			})
			return
		}
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, createOrderResponse{
		Order: res.Order,
		Payment: paymentInfo{
			Reference:        res.Reference,
			AuthorizationURL: res.AuthorizationURL,
		},
	})
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=128"`
}

func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	var req verifyPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Service.VerifyPayment(r.Context(), id, strings.TrimSpace(req.Reference))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}

	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		writeError(w, r, &requestError{msg: "validation failed", details: map[string]string{"email": "is required"}})
		return
	}

	view, err := h.Service.GetStatus(r.Context(), id, email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, &requestError{msg: "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}
