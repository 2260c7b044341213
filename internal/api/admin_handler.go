package api

import (
	"net/http"
	"strings"

	"storefront-be/internal/auth"
	"storefront-be/internal/order"
	"storefront-be/internal/utils"
)

type AdminHandler struct {
	Auth   *auth.AdminAuthenticator
	Orders order.Service
	// SecureCookie marks the session cookie Secure outside development.
	SecureCookie bool
}

func NewAdminHandler(a *auth.AdminAuthenticator, orders order.Service, secureCookie bool) *AdminHandler {
	return &AdminHandler{Auth: a, Orders: orders, SecureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=256"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/api/admin",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	utils.WriteJSON(w, http.StatusOK, res)
}

type listOrdersResponse struct {
	Orders []*order.Order `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := order.ListFilter{
		Email:  utils.NormalizeEmail(q.Get("email")),
		Limit:  utils.QueryInt(r, "limit", 20),
		Offset: utils.QueryInt(r, "offset", 0),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status := order.Status(strings.ToLower(raw))
		filter.Status = &status
	}

	orders, err := h.Orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, listOrdersResponse{Orders: orders, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	o, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
