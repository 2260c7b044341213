package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

const (
	SignatureHeader = "x-paystack-signature"
	maxBodyBytes    = 1 << 20
)

type Handler struct {
	OrderSvc order.Service
	Gateway  payment.Gateway
	Repo     payment.Repository
	Metrics  *metrics.OrderMetrics
}

func NewWebhookHandler(orderSvc order.Service, gateway payment.Gateway, repo payment.Repository, m *metrics.OrderMetrics) *Handler {
	return &Handler{
		OrderSvc: orderSvc,
		Gateway:  gateway,
		Repo:     repo,
		Metrics:  m,
	}
}

// PaymentWebhookHandler acknowledges every authenticated delivery with 200
// unless processing hit an infrastructure error, in which case the provider
// is asked to retry.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("layer", "webhook"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Gateway.VerifySignature(body, r.Header.Get(SignatureHeader)); err != nil {
		log.Warn("rejected webhook with invalid signature")
		h.Metrics.IncWebhook("", "invalid_signature")
		utils.WriteJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev payment.PaystackEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.Event == "" {
		h.Metrics.IncWebhook("", "malformed")
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	verification, parseErr := payment.ParseChargeEvent(ev)
	reference := ""
	if verification != nil {
		reference = verification.Reference
	}
	ctx = logger.WithFields(ctx, zap.String("event", ev.Event), zap.String("reference", reference))
	log = logger.FromCtx(ctx).With(zap.String("layer", "webhook"))

	stored := &payment.Webhook{
		Provider:       payment.ProviderPaystack,
		EventID:        payment.EventID(ev),
		EventType:      ev.Event,
		Reference:      reference,
		SignatureValid: true,
		Payload:        json.RawMessage(body),
	}
	webhookID, duplicate, err := h.Repo.SaveWebhook(ctx, stored)
	if err != nil {
		log.Error("failed to store webhook", zap.Error(err))
		h.Metrics.IncWebhook(ev.Event, "error")
		utils.WriteJSONError(w, "failed to store webhook", http.StatusInternalServerError)
		return
	}
	if duplicate {
		log.Info("duplicate webhook ignored", zap.Int64("webhook_id", webhookID))
		h.Metrics.IncWebhook(ev.Event, "duplicate")
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	if parseErr != nil {
		if errors.Is(parseErr, payment.ErrUnsupportedEventType) {
			h.markProcessed(ctx, webhookID)
			h.Metrics.IncWebhook(ev.Event, "ignored")
			utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		h.markFailed(ctx, webhookID, parseErr)
		h.Metrics.IncWebhook(ev.Event, "malformed")
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
		return
	}

	res, err := h.OrderSvc.HandlePaymentEvent(ctx, order.PaymentEventFromVerification(order.SourceWebhook, verification))
	if err != nil {
		h.markFailed(ctx, webhookID, err)
		if errors.Is(err, order.ErrOrderNotFound) || errors.Is(err, order.ErrPaymentVerificationFailed) {
			log.Warn("webhook not applicable", zap.String("reference", reference), zap.Error(err))
			h.Metrics.IncWebhook(ev.Event, "rejected")
			utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
			return
		}
		log.Error("failed to apply webhook", zap.String("reference", reference), zap.Error(err))
		h.Metrics.IncWebhook(ev.Event, "error")
		utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
		return
	}

	h.markProcessed(ctx, webhookID)
	h.Metrics.IncWebhook(ev.Event, "processed")
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "processed",
		"order_status":   string(res.OrderStatus),
		"payment_status": string(res.PaymentStatus),
	})
}

func (h *Handler) markProcessed(ctx context.Context, webhookID int64) {
	if err := h.Repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		logger.FromCtx(ctx).Error("failed to mark webhook processed", zap.Int64("webhook_id", webhookID), zap.Error(err))
	}
}

func (h *Handler) markFailed(ctx context.Context, webhookID int64, cause error) {
	if err := h.Repo.MarkWebhookFailed(ctx, webhookID, cause.Error()); err != nil {
		logger.FromCtx(ctx).Error("failed to mark webhook failed", zap.Int64("webhook_id", webhookID), zap.Error(err))
	}
}
