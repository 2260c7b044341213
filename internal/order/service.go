package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/payment"
	"storefront-be/internal/pricing"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetStatus(ctx context.Context, id uuid.UUID, email string) (*StatusView, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error)

	// VerifyPayment asks the provider for the outcome of reference and
	// reconciles it. It is safe to call any number of times.
	VerifyPayment(ctx context.Context, id uuid.UUID, reference string) (*PaymentResult, error)
	// HandlePaymentEvent reconciles an authenticated provider webhook.
	HandlePaymentEvent(ctx context.Context, ev PaymentEvent) (*PaymentResult, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (*Order, error)
}

type Config struct {
	ChargeCurrency pricing.Currency
	CallbackURL    string
}

type service struct {
	repo     Repository
	engine   *pricing.Engine
	gateway  payment.Gateway
	notifier Notifier
	metrics  *metrics.OrderMetrics
	cfg      Config

	now          func() time.Time
	newReference func() string
}

const maxStatusRetries = 3

func NewService(
	repo Repository,
	engine *pricing.Engine,
	gateway payment.Gateway,
	notifier Notifier,
	m *metrics.OrderMetrics,
	cfg Config,
) Service {
	if cfg.ChargeCurrency == "" {
		cfg.ChargeCurrency = engine.BaseCurrency()
	}
	return &service{
		repo:         repo,
		engine:       engine,
		gateway:      gateway,
		notifier:     notifier,
		metrics:      m,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		newReference: utils.GeneratePaymentReference,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	if len(input.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, it := range input.Items {
		if strings.TrimSpace(it.ProductID) == "" || it.UnitPrice < 0 || it.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %q", ErrInvalidOrder, it.ProductID)
		}
	}
	if strings.TrimSpace(input.Customer.Email) == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrInvalidOrder)
	}

	chargeCurrency := input.ChargeCurrency
	if chargeCurrency == "" {
		chargeCurrency = s.cfg.ChargeCurrency
	}
	if !chargeCurrency.IsValid() {
		return nil, fmt.Errorf("%w: %q", pricing.ErrUnsupportedCurrency, chargeCurrency)
	}

	method, err := pricing.ParseShippingMethod(string(input.ShippingMethod))
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:       uuid.New(),
		Items:    input.Items,
		Customer: input.Customer,
	}

	lines := o.Lines()
	if err := pricing.CheckLines(lines); err != nil {
		log.Warn("rejected order amounts", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	quote, err := s.engine.Quote(lines, method, input.DiscountCode)
	if err != nil {
		// An unknown code must not silently raise the amount charged.
		return nil, err
	}
	if quote.Subtotal <= 0 {
		return nil, ErrEmptyCart
	}

	charge, err := s.engine.Localize(quote, chargeCurrency)
	if err != nil {
		return nil, err
	}

	o.ShippingMethod = quote.ShippingMethod
	o.DiscountCode = quote.DiscountCode
	o.Subtotal = quote.Subtotal
	o.ShippingCost = quote.ShippingCost
	o.Discount = quote.Discount
	o.Total = quote.Total
	o.Currency = quote.Currency
	o.ChargeCurrency = chargeCurrency
	o.ChargeAmount = charge.Total
	o.Status = StatusPending
	o.PaymentStatus = PaymentPending
	o.PaymentReference = s.newReference()
	o.CreatedAt = s.now()

	log = log.With(zap.String("order_id", o.ID.String()), zap.String("reference", o.PaymentReference))

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to persist order", zap.Error(err))
		return nil, err
	}

	result := &CreateOrderResult{Order: o, Reference: o.PaymentReference}

	if o.ChargeAmount == 0 {
		// Nothing to collect; settle immediately.
		paid, err := s.reconcile(ctx, o, PaymentEvent{
			Source:    SourceSystem,
			Reference: o.PaymentReference,
			Outcome:   OutcomeSucceeded,
			Currency:  o.ChargeCurrency,
		})
		if err != nil {
			return result, err
		}
		o.Status, o.PaymentStatus = paid.OrderStatus, paid.PaymentStatus
		return result, nil
	}

	initRes, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Reference:   o.PaymentReference,
		Email:       o.Customer.Email,
		Amount:      o.ChargeAmount,
		Currency:    o.ChargeCurrency,
		CallbackURL: s.cfg.CallbackURL,
		Metadata:    map[string]string{"order_id": o.ID.String()},
	})
	if err != nil {
		log.Error("failed to initialize payment", zap.Error(err))
		return result, fmt.Errorf("%w: %w", ErrPaymentInitFailed, err)
	}
	result.AuthorizationURL = initRes.AuthorizationURL

	log.Info("order created",
		zap.Int64("total", o.Total),
		zap.Int64("charge_amount", o.ChargeAmount),
		zap.String("charge_currency", o.ChargeCurrency.String()),
	)
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetStatus authorizes by customer email since shoppers have no session.
// A mismatch is reported as not found so order ids cannot be enumerated.
func (s *service) GetStatus(ctx context.Context, id uuid.UUID, email string) (*StatusView, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email == "" || utils.NormalizeEmail(email) != utils.NormalizeEmail(o.Customer.Email) {
		return nil, ErrOrderNotFound
	}
	return &StatusView{
		OrderID:       o.ID,
		OrderStatus:   o.Status,
		PaymentStatus: o.PaymentStatus,
		UpdatedAt:     o.UpdatedAt,
	}, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

func (s *service) VerifyPayment(ctx context.Context, id uuid.UUID, reference string) (*PaymentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "VerifyPayment"),
		zap.String("order_id", id.String()),
		zap.String("reference", reference),
	)

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reference == "" || reference != o.PaymentReference {
		log.Warn("reference does not belong to order")
		s.metrics.IncConfirmation(SourceVerify, "error")
		return nil, fmt.Errorf("%w: reference mismatch", ErrPaymentVerificationFailed)
	}

	if o.PaymentStatus == PaymentPaid {
		s.metrics.IncConfirmation(SourceVerify, "duplicate")
		return resultOf(o, false), nil
	}

	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		log.Error("provider verification failed", zap.Error(err))
		s.metrics.IncConfirmation(SourceVerify, "error")
		return nil, fmt.Errorf("%w: %w", ErrPaymentVerificationFailed, err)
	}

	return s.reconcile(ctx, o, PaymentEventFromVerification(SourceVerify, v))
}

func (s *service) HandlePaymentEvent(ctx context.Context, ev PaymentEvent) (*PaymentResult, error) {
	if ev.Source == "" {
		ev.Source = SourceWebhook
	}
	o, err := s.repo.GetByReference(ctx, ev.Reference)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, o, ev)
}

// reconcile is the single entry point for payment outcomes. Only the caller
// whose conditional update applies performs side effects; every other
// caller reads back the winner's state.
func (s *service) reconcile(ctx context.Context, o *Order, ev PaymentEvent) (*PaymentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "reconcile"),
		zap.String("source", ev.Source),
		zap.String("order_id", o.ID.String()),
	)

	if o.PaymentStatus == PaymentPaid {
		s.metrics.IncConfirmation(ev.Source, "duplicate")
		return resultOf(o, false), nil
	}

	switch ev.Outcome {
	case OutcomePending:
		s.metrics.IncConfirmation(ev.Source, "pending")
		return resultOf(o, false), nil

	case OutcomeFailed:
		// The order stays pending so the customer can retry.
		changed, err := s.repo.MarkPaymentFailed(ctx, o.ID)
		if err != nil {
			s.metrics.IncConfirmation(ev.Source, "error")
			return nil, err
		}
		s.metrics.IncConfirmation(ev.Source, "failed")
		if !changed {
			return s.reload(ctx, o.ID)
		}
		o.PaymentStatus = PaymentFailed
		log.Info("payment failed")
		return resultOf(o, true), nil
	}

	if ev.Source != SourceSystem && (ev.Amount != o.ChargeAmount || ev.Currency != o.ChargeCurrency) {
		log.Warn("paid amount does not match order",
			zap.Int64("expected", o.ChargeAmount),
			zap.Int64("received", ev.Amount),
			zap.String("expected_currency", o.ChargeCurrency.String()),
			zap.String("received_currency", ev.Currency.String()),
		)
		s.metrics.IncConfirmation(ev.Source, "error")
		return nil, fmt.Errorf("%w: amount mismatch", ErrPaymentVerificationFailed)
	}

	paidAt := s.now()
	if ev.PaidAt != nil {
		paidAt = ev.PaidAt.UTC()
	}

	won, err := s.repo.ConfirmPayment(ctx, o, paidAt)
	if err != nil {
		s.metrics.IncConfirmation(ev.Source, "error")
		return nil, err
	}
	if !won {
		return s.settleLost(ctx, o.ID, ev.Source, paidAt)
	}

	from := o.Status
	o.Status = StatusProcessing
	o.PaymentStatus = PaymentPaid
	o.PaidAt = &paidAt

	s.metrics.IncConfirmation(ev.Source, "confirmed")
	s.metrics.IncTransition(from.String(), o.Status.String())
	log.Info("payment confirmed")

	s.notify(ctx, o, StatusProcessing)
	return resultOf(o, true), nil
}

// settleLost handles a successful charge whose confirmation did not apply.
// Either another path already confirmed it, or the order left pending
// first; in the latter case the capture is still recorded.
func (s *service) settleLost(ctx context.Context, id uuid.UUID, source string, paidAt time.Time) (*PaymentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "settleLost"),
		zap.String("source", source),
		zap.String("order_id", id.String()),
	)

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.PaymentStatus == PaymentPaid || cur.Status == StatusPending {
		s.metrics.IncConfirmation(source, "duplicate")
		log.Info("payment already settled by another path")
		return resultOf(cur, false), nil
	}

	recorded, err := s.repo.RecordLatePayment(ctx, id, paidAt)
	if err != nil {
		s.metrics.IncConfirmation(source, "error")
		return nil, err
	}
	if !recorded {
		s.metrics.IncConfirmation(source, "duplicate")
		return s.reload(ctx, id)
	}

	cur.PaymentStatus = PaymentPaid
	cur.PaidAt = &paidAt
	s.metrics.IncConfirmation(source, "late")
	log.Warn("payment captured after order left pending",
		zap.String("order_status", cur.Status.String()),
		zap.Time("paid_at", paidAt),
	)
	return resultOf(cur, true), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id.String()),
		zap.String("target", target.String()),
	)

	for attempt := 0; attempt < maxStatusRetries; attempt++ {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		_, changed, err := Transition(o.Status, target)
		if err != nil {
			log.Warn("rejected status transition", zap.String("current", o.Status.String()))
			return o, err
		}
		if !changed {
			return o, nil
		}
		// Processing is entered only by a confirmed payment.
		if target == StatusProcessing && o.PaymentStatus != PaymentPaid {
			log.Warn("rejected processing for unpaid order", zap.String("payment_status", string(o.PaymentStatus)))
			return o, &TransitionError{From: o.Status, To: target}
		}

		applied, err := s.repo.UpdateStatus(ctx, id, o.Status, target)
		if err != nil {
			log.Error("failed to update status", zap.Error(err))
			return nil, err
		}
		if !applied {
			continue
		}

		s.metrics.IncTransition(o.Status.String(), target.String())
		o.Status = target
		o.UpdatedAt = s.now()
		log.Info("order status updated")

		if Notifies(target) {
			s.notify(ctx, o, target)
		}
		return o, nil
	}

	return nil, ErrStatusConflict
}

// notify never fails the caller: the state change is already committed.
func (s *service) notify(ctx context.Context, o *Order, status Status) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, o, status); err != nil {
		s.metrics.IncNotification(status.String(), "error")
		logger.FromCtx(ctx).Error("failed to send notification",
			zap.String("order_id", o.ID.String()),
			zap.String("status", status.String()),
			zap.Error(err),
		)
		return
	}
	s.metrics.IncNotification(status.String(), "sent")
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*PaymentResult, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return resultOf(o, false), nil
}

func resultOf(o *Order, changed bool) *PaymentResult {
	return &PaymentResult{
		OrderID:       o.ID,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.Status,
		NeedsReview:   o.PaymentStatus == PaymentPaid && o.Status == StatusCancelled,
		Changed:       changed,
	}
}

func outcomeOf(s payment.TransactionStatus) PaymentOutcome {
	switch s.Outcome() {
	case payment.OutcomeSucceeded:
		return OutcomeSucceeded
	case payment.OutcomeFailed:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// PaymentEventFromVerification adapts a provider transaction into an event.
func PaymentEventFromVerification(source string, v *payment.Verification) PaymentEvent {
	return PaymentEvent{
		Source:    source,
		Reference: v.Reference,
		Outcome:   outcomeOf(v.Status),
		Amount:    v.Amount,
		Currency:  v.Currency,
		PaidAt:    v.PaidAt,
	}
}

// IsClientError reports whether err stems from bad input rather than an
// infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrIllegalStatusTransition) ||
		errors.Is(err, pricing.ErrInvalidDiscountCode) ||
		errors.Is(err, pricing.ErrUnsupportedCurrency) ||
		errors.Is(err, pricing.ErrInvalidShipping) ||
		errors.Is(err, pricing.ErrAmountOutOfRange)
}
