package api

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Orders    *OrderHandler
	Carts     *CartHandler
	Pricing   *PricingHandler
	Admin     *AdminHandler
	Inventory *InventoryHandler
	Webhook   http.Handler

	Tokens     *auth.TokenManager
	Limiter    *middleware.RateLimiter
	Gatherer   prometheus.Gatherer
	CORSOrigin string
	Checks     map[string]Checker
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		logger.RequestIDMiddleware,
		middleware.LoggingMiddleware,
		chimw.Recoverer,
		middleware.CORS(d.CORSOrigin),
	)

	r.Get("/health", healthHandler(d.Checks))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(d.Limiter.Handler)

			r.Post("/orders", d.Orders.CreateOrder)
			r.Post("/orders/{id}/verify", d.Orders.VerifyPayment)
			r.Get("/orders/{id}/status", d.Orders.GetStatus)

			r.Post("/payments/webhook", d.Webhook.ServeHTTP)

			r.Route("/cart/{sessionID}", func(r chi.Router) {
				r.Get("/", d.Carts.GetCart)
				r.Delete("/", d.Carts.ClearCart)
				r.Post("/items", d.Carts.AddItem)
				r.Patch("/items", d.Carts.UpdateItem)
				r.Delete("/items", d.Carts.RemoveItem)
				r.Put("/discount", d.Carts.ApplyDiscount)
				r.Delete("/discount", d.Carts.RemoveDiscount)
				r.Get("/quote", d.Carts.Quote)
			})

			r.Post("/discounts/validate", d.Pricing.ValidateDiscount)
			r.Get("/pricing/config", d.Pricing.Config)
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(d.Limiter.Handler).Post("/login", d.Admin.Login)

			r.Group(func(r chi.Router) {
				// Authenticated first so the limiter keys on the admin.
				r.Use(middleware.AdminOnly(d.Tokens), d.Limiter.Handler)

				r.Get("/orders", d.Admin.ListOrders)
				r.Get("/orders/{id}", d.Admin.GetOrder)
				r.Patch("/orders/{id}/status", d.Admin.UpdateStatus)

				r.Get("/inventory", d.Inventory.List)
				r.Get("/inventory/{productID}", d.Inventory.Get)
				r.Put("/inventory/{productID}", d.Inventory.Set)
				r.Patch("/inventory/{productID}", d.Inventory.Adjust)
			})
		})
	})

	return r
}
