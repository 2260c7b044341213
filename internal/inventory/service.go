package inventory

import (
	"context"
	"strings"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	ListStock(ctx context.Context) ([]StockLevel, error)
	GetStock(ctx context.Context, productID string) (*StockLevel, error)
	SetStock(ctx context.Context, productID string, stock int) (*StockLevel, error)
	AdjustStock(ctx context.Context, productID string, delta int) (*StockLevel, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func normalizeProductID(productID string) (string, error) {
	id := strings.TrimSpace(productID)
	if id == "" || len(id) > 128 {
		return "", ErrInvalidProductID
	}
	return id, nil
}

func (s *service) ListStock(ctx context.Context) ([]StockLevel, error) {
	return s.repo.List(ctx)
}

func (s *service) GetStock(ctx context.Context, productID string) (*StockLevel, error) {
	id, err := normalizeProductID(productID)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *service) SetStock(ctx context.Context, productID string, stock int) (*StockLevel, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SetStock"),
	)

	id, err := normalizeProductID(productID)
	if err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	level, err := s.repo.Set(ctx, id, stock)
	if err != nil {
		log.Error("failed to set stock", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}

	admin, _ := utils.GetAdminEmailFromContext(ctx)
	log.Info("stock set", zap.String("product_id", id), zap.Int("stock", stock), zap.String("admin", admin))
	return level, nil
}

func (s *service) AdjustStock(ctx context.Context, productID string, delta int) (*StockLevel, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AdjustStock"),
	)

	id, err := normalizeProductID(productID)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return s.repo.Get(ctx, id)
	}

	level, err := s.repo.Adjust(ctx, id, delta)
	if err != nil {
		log.Warn("stock adjustment rejected", zap.String("product_id", id), zap.Int("delta", delta), zap.Error(err))
		return nil, err
	}

	log.Info("stock adjusted", zap.String("product_id", id), zap.Int("delta", delta), zap.Int("stock", level.Stock))
	return level, nil
}
