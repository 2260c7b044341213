package inventory

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Repository interface {
	List(ctx context.Context) ([]StockLevel, error)
	Get(ctx context.Context, productID string) (*StockLevel, error)
	Set(ctx context.Context, productID string, stock int) (*StockLevel, error)
	Adjust(ctx context.Context, productID string, delta int) (*StockLevel, error)
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *repository) List(ctx context.Context) ([]StockLevel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, stock, updated_at FROM inventory ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := []StockLevel{}
	for rows.Next() {
		var s StockLevel
		if err := rows.Scan(&s.ProductID, &s.Stock, &s.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, s)
	}
	return levels, rows.Err()
}

func (r *repository) Get(ctx context.Context, productID string) (*StockLevel, error) {
	var s StockLevel
	err := r.db.QueryRowContext(ctx,
		`SELECT product_id, stock, updated_at FROM inventory WHERE product_id = $1`, productID,
	).Scan(&s.ProductID, &s.Stock, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Set(ctx context.Context, productID string, stock int) (*StockLevel, error) {
	s := StockLevel{ProductID: productID, Stock: stock, UpdatedAt: r.now()}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory (product_id, stock, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET stock = EXCLUDED.stock, updated_at = EXCLUDED.updated_at
	`, s.ProductID, s.Stock, s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Adjust applies delta only if the result stays non-negative.
func (r *repository) Adjust(ctx context.Context, productID string, delta int) (*StockLevel, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory
		SET stock = stock + $2, updated_at = $3
		WHERE product_id = $1 AND stock + $2 >= 0
	`, productID, delta, r.now())
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either untracked or the delta would go below zero.
		if _, err := r.Get(ctx, productID); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientStock
	}
	return r.Get(ctx, productID)
}
