package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix        = "storefront:cart:"
	maxUpdateRetries = 5
)

// Repository is the persistence boundary for cart state.
type Repository interface {
	Load(ctx context.Context, sessionID string) (*CartState, error)
	// Update applies fn to the stored cart and writes the result back
	// only if nobody else wrote the cart in between.
	Update(ctx context.Context, sessionID string, fn func(*CartState) error) (*CartState, error)
	Delete(ctx context.Context, sessionID string) error
}

type repository struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRepository stores carts as JSON documents that expire after ttl of
// inactivity. A zero ttl keeps carts forever.
func NewRepository(rdb redis.UniversalClient, ttl time.Duration) Repository {
	return &repository{rdb: rdb, ttl: ttl}
}

func cartKey(sessionID string) string {
	return keyPrefix + sessionID
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *repository) Load(ctx context.Context, sessionID string) (*CartState, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	return r.load(ctx, r.rdb, sessionID)
}

func (r *repository) load(ctx context.Context, g getter, sessionID string) (*CartState, error) {
	raw, err := g.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewCartState(sessionID), nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load cart",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}

	var state CartState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFailedLoadCart, err)
	}
	state.SessionID = sessionID
	if state.Items == nil {
		state.Items = []CartItem{}
	}
	return &state, nil
}

func (r *repository) Update(ctx context.Context, sessionID string, fn func(*CartState) error) (*CartState, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Update"),
		zap.String("session_id", sessionID),
	)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	key := cartKey(sessionID)

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		var (
			state   *CartState
			entered bool
		)
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			entered = true

			var err error
			state, err = r.load(ctx, tx, sessionID)
			if err != nil {
				return err
			}
			if err := fn(state); err != nil {
				return err
			}

			state.UpdatedAt = time.Now().UTC()
			raw, err := json.Marshal(state)
			if err != nil {
				return fmt.Errorf("%w: encode: %v", ErrFailedSaveCart, err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, raw, r.ttl)
				return nil
			})
			if err != nil && !errors.Is(err, redis.TxFailedErr) {
				return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
			}
			return err
		}, key)

		switch {
		case err == nil:
			return state, nil
		case errors.Is(err, redis.TxFailedErr):
			log.Debug("cart changed during update, retrying", zap.Int("attempt", attempt+1))
			continue
		case !entered:
			log.Error("failed to watch cart", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
		default:
			return nil, err
		}
	}

	log.Warn("giving up on contended cart update")
	return nil, ErrCartConflict
}

func (r *repository) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	return r.rdb.Del(ctx, cartKey(sessionID)).Err()
}
