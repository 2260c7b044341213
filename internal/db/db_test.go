package db

import (
	"context"
	"errors"
	"testing"

	"storefront-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase_SQLiteInMemory(t *testing.T) {
	db, err := NewDatabase(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file::memory:?cache=shared",
	})

	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestNewDatabase_InvalidDriver(t *testing.T) {
	db, err := NewDatabase(context.Background(), config.DBConfig{Driver: "mysql"})

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "unsupported db driver")
}

func TestNewDatabase_UnregisteredDriver(t *testing.T) {
	db, err := newDatabaseWithDriver(context.Background(), config.DBConfig{}, "invalid_driver_name")

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to open DB")
}

func TestNewDatabase_PingFailure(t *testing.T) {
	conn, mock, err := sqlmock.NewWithDSN("ping_failure", sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	db, err := newDatabaseWithDriver(context.Background(), config.DBConfig{
		Driver: config.DriverPostgres,
		DSN:    "ping_failure",
	}, "sqlmock")

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to ping DB")
}
