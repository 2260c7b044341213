package cart

import (
	"context"
	"errors"

	"storefront-be/internal/logger"
	"storefront-be/internal/pricing"

	"go.uber.org/zap"
)

// Service defines the business logic for carts. Every mutation is an
// optimistic read-modify-write of the session's CartState.
type Service interface {
	GetCart(ctx context.Context, sessionID string) (*CartState, error)
	AddItem(ctx context.Context, sessionID string, item CartItem) (*CartState, error)
	UpdateItem(ctx context.Context, sessionID string, params UpdateItemParams) (*CartState, error)
	RemoveItem(ctx context.Context, sessionID string, key ItemKey) (*CartState, error)
	ClearCart(ctx context.Context, sessionID string) error
	ApplyDiscount(ctx context.Context, sessionID string, code string) (*CartState, *pricing.DiscountResult, error)
	RemoveDiscount(ctx context.Context, sessionID string) (*CartState, error)
	Quote(ctx context.Context, sessionID string, method pricing.ShippingMethod) (*CartState, pricing.Quote, error)
}

// UpdateItemParams sets an absolute quantity when Quantity is non-nil,
// otherwise applies Delta.
type UpdateItemParams struct {
	Key      ItemKey
	Quantity *int
	Delta    int
}

type service struct {
	repo   Repository
	engine *pricing.Engine
}

func NewService(repo Repository, engine *pricing.Engine) Service {
	return &service{repo: repo, engine: engine}
}

func (s *service) GetCart(ctx context.Context, sessionID string) (*CartState, error) {
	return s.repo.Load(ctx, sessionID)
}

// mutate may run fn more than once when the cart is written concurrently.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(*CartState) error) (*CartState, error) {
	return s.repo.Update(ctx, sessionID, fn)
}

func (s *service) AddItem(ctx context.Context, sessionID string, item CartItem) (*CartState, error) {
	return s.mutate(ctx, sessionID, func(c *CartState) error {
		return c.Add(item)
	})
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, params UpdateItemParams) (*CartState, error) {
	return s.mutate(ctx, sessionID, func(c *CartState) error {
		if params.Quantity != nil {
			return c.SetQuantity(params.Key, *params.Quantity)
		}
		return c.AdjustQuantity(params.Key, params.Delta)
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, key ItemKey) (*CartState, error) {
	return s.mutate(ctx, sessionID, func(c *CartState) error {
		return c.Remove(key)
	})
}

func (s *service) ClearCart(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// ApplyDiscount validates the code before touching the cart, so an unknown
// code leaves the stored cart exactly as it was.
func (s *service) ApplyDiscount(ctx context.Context, sessionID string, code string) (*CartState, *pricing.DiscountResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ApplyDiscount"),
		zap.String("session_id", sessionID),
	)

	var result pricing.DiscountResult
	state, err := s.mutate(ctx, sessionID, func(c *CartState) error {
		res, err := s.engine.ApplyDiscount(code, c.Subtotal())
		if err != nil {
			return err
		}
		result = res
		c.ApplyDiscount(res.Code)
		return nil
	})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidDiscountCode) {
			log.Info("discount code rejected", zap.String("code", pricing.NormalizeCode(code)))
		}
		return nil, nil, err
	}

	log.Info("discount code applied", zap.String("code", result.Code))
	return state, &result, nil
}

func (s *service) RemoveDiscount(ctx context.Context, sessionID string) (*CartState, error) {
	return s.mutate(ctx, sessionID, func(c *CartState) error {
		c.RemoveDiscount()
		return nil
	})
}

// Quote prices the stored cart. A stored code that is no longer configured
// is dropped from the quote rather than failing it.
func (s *service) Quote(ctx context.Context, sessionID string, method pricing.ShippingMethod) (*CartState, pricing.Quote, error) {
	state, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}

	q, err := s.engine.Quote(state.Lines(), method, state.DiscountCode)
	if err != nil && !errors.Is(err, pricing.ErrInvalidDiscountCode) {
		return nil, pricing.Quote{}, err
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("stored discount code no longer valid",
			zap.String("session_id", sessionID),
			zap.String("code", state.DiscountCode),
		)
	}
	return state, q, nil
}
