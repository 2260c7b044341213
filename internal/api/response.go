package api

import (
	"errors"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type transitionErrorBody struct {
	Error string       `json:"error"`
	From  order.Status `json:"from"`
	To    order.Status `json:"to"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		utils.WriteJSON(w, http.StatusBadRequest, errorBody{Error: reqErr.msg, Details: reqErr.details})
		return
	}

	var transErr *order.TransitionError
	if errors.As(err, &transErr) {
		utils.WriteJSON(w, http.StatusConflict, transitionErrorBody{
			Error: transErr.Error(),
			From:  transErr.From,
			To:    transErr.To,
		})
		return
	}

	status := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusBadGateway:
		msg = "payment provider unavailable"
	case status >= http.StatusInternalServerError:
		msg = http.StatusText(status)
	}

	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	utils.WriteJSONError(w, msg, status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, inventory.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrStatusConflict),
		errors.Is(err, cart.ErrCartConflict),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, payment.ErrGatewayUnavailable),
		errors.Is(err, order.ErrPaymentInitFailed):
		return http.StatusBadGateway
	case errors.Is(err, order.ErrPaymentVerificationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAdminDisabled):
		return http.StatusServiceUnavailable
	case order.IsClientError(err),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrInvalidSession),
		errors.Is(err, inventory.ErrInvalidProductID),
		errors.Is(err, inventory.ErrInvalidStock):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
