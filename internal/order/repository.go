package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository persists orders. Every status or payment mutation is a single
// UPDATE conditioned on the current row state, so concurrent writers never
// both succeed; the bool result reports whether this caller's write applied.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)

	// ConfirmPayment moves a pending, unpaid order to paid/processing and
	// decrements inventory for its items in the same transaction.
	ConfirmPayment(ctx context.Context, o *Order, paidAt time.Time) (bool, error)
	// RecordLatePayment marks an order that already left pending as paid
	// without touching its status or inventory.
	RecordLatePayment(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const orderColumns = `
	id, customer_name, customer_email, customer_phone, customer_address,
	shipping_method, discount_code, subtotal, shipping_cost, discount, total,
	currency, charge_currency, charge_amount, status, payment_status,
	payment_reference, paid_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		paidAt sql.NullTime
	)
	err := row.Scan(
		&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone, &o.Customer.Address,
		&o.ShippingMethod, &o.DiscountCode, &o.Subtotal, &o.ShippingCost, &o.Discount, &o.Total,
		&o.Currency, &o.ChargeCurrency, &o.ChargeAmount, &o.Status, &o.PaymentStatus,
		&o.PaymentReference, &paidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	return &o, nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID.String()),
	)

	now := r.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		o.ID, o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Address,
		o.ShippingMethod, o.DiscountCode, o.Subtotal, o.ShippingCost, o.Discount, o.Total,
		o.Currency, o.ChargeCurrency, o.ChargeAmount, o.Status, o.PaymentStatus,
		o.PaymentReference, nil, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, color, size, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, o.ID, it.ProductID, it.Name, it.UnitPrice, it.Color, it.Size, it.Quantity).Scan(&it.ID)
		if err != nil {
			log.Error("failed to insert order item", zap.String("product_id", it.ProductID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return r.loadOrder(ctx, row)
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1`, reference)
	return r.loadOrder(ctx, row)
}

func (r *repository) loadOrder(ctx context.Context, row rowScanner) (*Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repository) getItems(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, unit_price, color, size, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.UnitPrice, &it.Color, &it.Size, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns order headers without items, newest first.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Email)))
		where = append(where, fmt.Sprintf("LOWER(customer_email) = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) ConfirmPayment(ctx context.Context, o *Order, paidAt time.Time) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ConfirmPayment"),
		zap.String("order_id", o.ID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, status = $3, paid_at = $4, updated_at = $5
		WHERE id = $1 AND status = $6 AND payment_status <> $2
	`, o.ID, PaymentPaid, StatusProcessing, paidAt, r.now(), StatusPending)
	if err != nil {
		log.Error("failed to confirm payment", zap.Error(err))
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}

	for _, it := range o.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET stock = stock - $2, updated_at = $3
			WHERE product_id = $1 AND stock >= $2
		`, it.ProductID, it.Quantity, r.now())
		if err != nil {
			log.Error("failed to decrement inventory", zap.String("product_id", it.ProductID), zap.Error(err))
			return false, err
		}
		// Payment is already captured; an untracked or short product is
		// flagged for manual follow-up rather than failing the order.
		if n, _ := res.RowsAffected(); n == 0 {
			log.Warn("inventory not decremented",
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit payment confirmation", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (r *repository) RecordLatePayment(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, paid_at = $3, updated_at = $4
		WHERE id = $1 AND payment_status <> $2 AND status <> $5
	`, id, PaymentPaid, paidAt, r.now(), StatusPending)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to record late payment", zap.String("order_id", id.String()), zap.Error(err))
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2, updated_at = $3
		WHERE id = $1 AND payment_status = $4
	`, id, PaymentFailed, r.now(), PaymentPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, r.now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
