package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &repository{db: db, now: func() time.Time { return now }}, mock, now
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock, now := newMockRepo(t)
		mock.ExpectQuery(`SELECT product_id, stock, updated_at FROM inventory ORDER BY product_id`).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}).
				AddRow("p-1", 4, now).
				AddRow("p-2", 0, now))

		levels, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, "p-1", levels[0].ProductID)
		assert.Equal(t, 4, levels[0].Stock)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		repo, mock, _ := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM inventory`).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}))

		levels, err := repo.List(ctx)

		require.NoError(t, err)
		assert.NotNil(t, levels)
		assert.Empty(t, levels)
	})

	t.Run("QueryError", func(t *testing.T) {
		repo, mock, _ := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM inventory`).WillReturnError(errors.New("db error"))

		_, err := repo.List(ctx)
		assert.Error(t, err)
	})
}

func TestRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		repo, mock, _ := newMockRepo(t)
		mock.ExpectQuery(`SELECT .* FROM inventory WHERE product_id = \$1`).
			WithArgs("p-9").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}))

		_, err := repo.Get(ctx, "p-9")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRepository_Set(t *testing.T) {
	ctx := context.Background()
	repo, mock, now := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO inventory .* ON CONFLICT \(product_id\) DO UPDATE SET stock = EXCLUDED.stock`).
		WithArgs("p-1", 12, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	level, err := repo.Set(ctx, "p-1", 12)

	require.NoError(t, err)
	assert.Equal(t, 12, level.Stock)
	assert.Equal(t, now, level.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock, now := newMockRepo(t)
		mock.ExpectExec(`UPDATE inventory SET stock = stock \+ \$2, updated_at = \$3 WHERE product_id = \$1 AND stock \+ \$2 >= 0`).
			WithArgs("p-1", -2, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT .* FROM inventory WHERE product_id = \$1`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}).AddRow("p-1", 3, now))

		level, err := repo.Adjust(ctx, "p-1", -2)

		require.NoError(t, err)
		assert.Equal(t, 3, level.Stock)
	})

	t.Run("Insufficient", func(t *testing.T) {
		repo, mock, now := newMockRepo(t)
		mock.ExpectExec(`UPDATE inventory`).
			WithArgs("p-1", -10, now).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM inventory WHERE product_id = \$1`).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}).AddRow("p-1", 5, now))

		_, err := repo.Adjust(ctx, "p-1", -10)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("Untracked", func(t *testing.T) {
		repo, mock, now := newMockRepo(t)
		mock.ExpectExec(`UPDATE inventory`).
			WithArgs("p-9", 1, now).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT .* FROM inventory WHERE product_id = \$1`).
			WithArgs("p-9").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "stock", "updated_at"}))

		_, err := repo.Adjust(ctx, "p-9", 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}
