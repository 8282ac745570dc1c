package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/orders/domain"
)

var orderColumnNames = []string{
	"order_key", "local_token", "name", "birthdate", "goal", "email", "inputs_authoritative",
	"status", "payment_status", "artifact_ref", "amount_cents", "currency", "version",
	"created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func pendingRow(key string, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(orderColumnNames).AddRow(
		key, nil, "", "", "", "", false,
		"PENDING", "", "", int64(0), "", int64(0), created, created,
	)
}

func paidRow(key string, created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(orderColumnNames).AddRow(
		key, "token-1234", "Ana", "1990-05-01", "job", "ana@example.com", true,
		"PAID", "paid", "", int64(100), "usd", int64(2), created, created,
	)
}

func TestPostgreSQLOrderRepository_Get(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE order_key = \$1`).
			WithArgs("cs_h1").
			WillReturnRows(paidRow("cs_h1", created))

		order, err := repo.Get(ctx, "cs_h1")

		require.NoError(t, err)
		assert.Equal(t, "cs_h1", order.Key)
		assert.Equal(t, "token-1234", order.LocalToken)
		assert.Equal(t, domain.StatusPaid, order.Status)
		assert.Equal(t, "Ana", order.Inputs.Name)
		assert.True(t, order.InputsAuthoritative)
		assert.Equal(t, int64(2), order.Version)
		assert.Equal(t, created, order.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)

		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE order_key = \$1`).
			WithArgs("cs_missing").
			WillReturnError(sql.ErrNoRows)

		order, err := repo.Get(ctx, "cs_missing")

		assert.Nil(t, order)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("Database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)
		dbErr := errors.New("connection reset")

		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE order_key = \$1`).
			WithArgs("cs_h1").
			WillReturnError(dbErr)

		_, err := repo.Get(ctx, "cs_h1")

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestPostgreSQLOrderRepository_GetByLocalToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOrderRepository(db)
	created := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE local_token = \$1 ORDER BY created_at DESC, order_key DESC LIMIT 1`).
		WithArgs("token-1234").
		WillReturnRows(paidRow("cs_h1", created))

	order, err := repo.GetByLocalToken(context.Background(), "token-1234")

	require.NoError(t, err)
	assert.Equal(t, "cs_h1", order.Key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Creates and updates in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders (.+) ON CONFLICT \(order_key\) DO NOTHING`).
			WithArgs("cs_h1", "PENDING", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE order_key = \$1 FOR UPDATE`).
			WithArgs("cs_h1").
			WillReturnRows(pendingRow("cs_h1", created))
		mock.ExpectExec(`UPDATE orders SET (.+) WHERE order_key = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		order, err := repo.Upsert(ctx, "cs_h1", domain.OrderUpdate{
			Status:              domain.StatusPtr(domain.StatusPaid),
			Inputs:              &domain.CustomerInputs{Name: "Ana"},
			InputsAuthoritative: true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, order.Status)
		assert.Equal(t, "Ana", order.Inputs.Name)
		assert.Equal(t, int64(1), order.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No change skips update", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FOR UPDATE`).
			WithArgs("cs_h1").
			WillReturnRows(paidRow("cs_h1", created))
		mock.ExpectCommit()

		order, err := repo.Upsert(ctx, "cs_h1", domain.OrderUpdate{
			Status: domain.StatusPtr(domain.StatusPending),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, order.Status)
		assert.Equal(t, int64(2), order.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Update failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)
		dbErr := errors.New("disk full")

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FOR UPDATE`).
			WillReturnRows(pendingRow("cs_h1", created))
		mock.ExpectExec(`UPDATE orders`).
			WillReturnError(dbErr)
		mock.ExpectRollback()

		order, err := repo.Upsert(ctx, "cs_h1", domain.OrderUpdate{
			Status: domain.StatusPtr(domain.StatusPaid),
		})

		assert.Nil(t, order)
		assert.ErrorIs(t, err, dbErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Insert failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLOrderRepository(db)
		dbErr := errors.New("connection refused")

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WillReturnError(dbErr)
		mock.ExpectRollback()

		_, err := repo.Upsert(ctx, "cs_h1", domain.OrderUpdate{})

		assert.ErrorIs(t, err, dbErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLOrderRepository_ListByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLOrderRepository(db)
	created := time.Now().UTC()

	rows := sqlmock.NewRows(orderColumnNames).
		AddRow("cs_a", nil, "A", "1990-01-01", "g", "a@example.com", true,
			"PAID", "paid", "", int64(100), "usd", int64(1), created, created).
		AddRow("cs_b", "token-5678", "B", "1991-01-01", "g", "b@example.com", true,
			"PAID", "paid", "", int64(100), "usd", int64(1), created, created)

	mock.ExpectQuery(`SELECT (.+) FROM orders WHERE status = \$1 ORDER BY created_at ASC LIMIT \$2`).
		WithArgs("PAID", 10).
		WillReturnRows(rows)

	orders, err := repo.ListByStatus(context.Background(), domain.StatusPaid, 10)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "cs_a", orders[0].Key)
	assert.Empty(t, orders[0].LocalToken)
	assert.Equal(t, "token-5678", orders[1].LocalToken)
	require.NoError(t, mock.ExpectationsWereMet())
}
