package order

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"storefront-be/internal/pricing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestRepository(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db).(*repository)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

var orderRowColumns = []string{
	"id", "customer_name", "customer_email", "customer_phone", "customer_address",
	"shipping_method", "discount_code", "subtotal", "shipping_cost", "discount", "total",
	"currency", "charge_currency", "charge_amount", "status", "payment_status",
	"payment_reference", "paid_at", "created_at", "updated_at",
}

func orderRow(id uuid.UUID, status Status, paymentStatus PaymentStatus) *sqlmock.Rows {
	return sqlmock.NewRows(orderRowColumns).AddRow(
		id.String(), "Ada", "ada@example.com", "", "",
		"standard", "", 10000, 1000, 0, 11000,
		"USD", "NGN", 16500000, string(status), string(paymentStatus),
		"ORD-1", nil, fixedNow, fixedNow,
	)
}

func sampleOrder() *Order {
	return &Order{
		ID:               uuid.New(),
		Items:            []Item{{ProductID: "p-1", Name: "Tee", UnitPrice: 5000, Color: "red", Size: "M", Quantity: 2}},
		Customer:         Customer{Name: "Ada", Email: "ada@example.com"},
		ShippingMethod:   pricing.ShippingStandard,
		Subtotal:         10000,
		ShippingCost:     1000,
		Total:            11000,
		Currency:         pricing.CurrencyUSD,
		ChargeCurrency:   pricing.CurrencyNGN,
		ChargeAmount:     16500000,
		Status:           StatusPending,
		PaymentStatus:    PaymentPending,
		PaymentReference: "ORD-1",
	}
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		o := sampleOrder()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs(
				o.ID, "Ada", "ada@example.com", "", "",
				pricing.ShippingStandard, "", int64(10000), int64(1000), int64(0), int64(11000),
				pricing.CurrencyUSD, pricing.CurrencyNGN, int64(16500000), StatusPending, PaymentPending,
				"ORD-1", nil, fixedNow, fixedNow,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO order_items .* RETURNING id`).
			WithArgs(o.ID, "p-1", "Tee", int64(5000), "red", "M", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, o))
		assert.Equal(t, int64(77), o.Items[0].ID)
		assert.Equal(t, fixedNow, o.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ItemInsertFails", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO order_items`).WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		assert.Error(t, repo.Create(ctx, sampleOrder()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(orderRow(id, StatusPending, PaymentPending))
		mock.ExpectQuery(`SELECT id, product_id, .* FROM order_items WHERE order_id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "unit_price", "color", "size", "quantity"}).
				AddRow(1, "p-1", "Tee", 5000, "red", "M", 2))

		o, err := repo.GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, id, o.ID)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, pricing.CurrencyNGN, o.ChargeCurrency)
		assert.Nil(t, o.PaidAt)
		require.Len(t, o.Items, 1)
		assert.Equal(t, 2, o.Items[0].Quantity)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery(`SELECT .* FROM orders WHERE id = \$1`).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_GetByReference(t *testing.T) {
	repo, mock := newTestRepository(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM orders WHERE payment_reference = \$1`).
		WithArgs("ORD-1").
		WillReturnRows(orderRow(id, StatusProcessing, PaymentPaid))
	mock.ExpectQuery(`FROM order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "unit_price", "color", "size", "quantity"}))

	o, err := repo.GetByReference(context.Background(), "ORD-1")

	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Empty(t, o.Items)
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("StatusFilter", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		status := StatusShipped

		mock.ExpectQuery(`SELECT .* FROM orders WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs(StatusShipped, 10, 20).
			WillReturnRows(orderRow(uuid.New(), StatusShipped, PaymentPaid))

		orders, err := repo.List(ctx, ListFilter{Status: &status, Limit: 10, Offset: 20})

		require.NoError(t, err)
		assert.Len(t, orders, 1)
	})

	t.Run("DefaultsAndEmail", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery(`WHERE LOWER\(customer_email\) = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
			WithArgs("ada@example.com", 20, 0).
			WillReturnRows(sqlmock.NewRows(orderRowColumns))

		orders, err := repo.List(ctx, ListFilter{Email: " Ada@Example.com", Limit: 500, Offset: -3})

		require.NoError(t, err)
		assert.Empty(t, orders)
	})

	t.Run("DBError", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery(`SELECT .* FROM orders`).WillReturnError(errors.New("db error"))

		_, err := repo.List(ctx, ListFilter{})
		assert.Error(t, err)
	})
}

func TestRepository_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	paidAt := fixedNow.Add(-time.Minute)

	t.Run("WinnerDecrementsInventory", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		o := sampleOrder()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders SET payment_status = \$2, status = \$3, paid_at = \$4, updated_at = \$5 WHERE id = \$1 AND status = \$6 AND payment_status <> \$2`).
			WithArgs(o.ID, PaymentPaid, StatusProcessing, paidAt, fixedNow, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE inventory SET stock = stock - \$2`).
			WithArgs("p-1", 2, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		won, err := repo.ConfirmPayment(ctx, o, paidAt)

		require.NoError(t, err)
		assert.True(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UntrackedInventoryStillCommits", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE inventory`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		won, err := repo.ConfirmPayment(ctx, sampleOrder(), paidAt)

		require.NoError(t, err)
		assert.True(t, won)
	})

	t.Run("LoserTouchesNothing", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		won, err := repo.ConfirmPayment(ctx, sampleOrder(), paidAt)

		require.NoError(t, err)
		assert.False(t, won)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InventoryError", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE inventory`).WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		won, err := repo.ConfirmPayment(ctx, sampleOrder(), paidAt)

		assert.Error(t, err)
		assert.False(t, won)
	})
}

func TestRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Applied", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec(`UPDATE orders SET status = \$3, updated_at = \$4 WHERE id = \$1 AND status = \$2`).
			WithArgs(id, StatusProcessing, StatusShipped, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateStatus(ctx, id, StatusProcessing, StatusShipped)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("StaleFromStatus", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec(`UPDATE orders SET status`).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateStatus(ctx, id, StatusProcessing, StatusShipped)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepository_MarkPaymentFailed(t *testing.T) {
	repo, mock := newTestRepository(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE orders SET payment_status = \$2, updated_at = \$3 WHERE id = \$1 AND payment_status = \$4`).
		WithArgs(id, PaymentFailed, fixedNow, PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkPaymentFailed(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepository_RecordLatePayment(t *testing.T) {
	ctx := context.Background()
	paidAt := fixedNow.Add(-time.Minute)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newTestRepository(t)
		id := uuid.New()

		mock.ExpectExec(`UPDATE orders SET payment_status = \$2, paid_at = \$3, updated_at = \$4 WHERE id = \$1 AND payment_status <> \$2 AND status <> \$5`).
			WithArgs(id, PaymentPaid, paidAt, fixedNow, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.RecordLatePayment(ctx, id, paidAt)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Recorded", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec(`UPDATE orders SET payment_status`).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.RecordLatePayment(ctx, uuid.New(), paidAt)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DB Error", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec(`UPDATE orders SET payment_status`).WillReturnError(errors.New("db down"))

		ok, err := repo.RecordLatePayment(ctx, uuid.New(), paidAt)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
