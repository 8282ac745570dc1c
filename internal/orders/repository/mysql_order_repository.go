package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/charms/internal/database"
	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// MySQLOrderRepository implements Order Record persistence for MySQL databases.
// The connection string must set parseTime=true.
type MySQLOrderRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLOrderRepository creates a new MySQL order repository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db:        db,
		txManager: database.NewTxManager(db),
	}
}

// Get retrieves an order by its session handle.
func (m *MySQLOrderRepository) Get(ctx context.Context, key string) (*domain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_key = ?`

	return scanOrder(querier.QueryRowContext(ctx, query, key))
}

// GetByLocalToken retrieves the most recently created order carrying a client
// correlation token. A retried checkout reuses the token on a new session.
func (m *MySQLOrderRepository) GetByLocalToken(ctx context.Context, token string) (*domain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE local_token = ?
			  ORDER BY created_at DESC, order_key DESC LIMIT 1`

	return scanOrder(querier.QueryRowContext(ctx, query, token))
}

// Upsert inserts a pending row when missing, locks it, merges update and writes
// the result back, all inside one transaction.
func (m *MySQLOrderRepository) Upsert(
	ctx context.Context,
	key string,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	var stored *domain.Order

	err := m.txManager.WithTx(ctx, func(txCtx context.Context) error {
		querier := database.GetTx(txCtx, m.db)
		now := nowUTC()

		// Must lock the existing row exclusively; a shared lock deadlocks on FOR UPDATE.
		insert := `INSERT INTO orders (order_key, status, version, created_at, updated_at)
				   VALUES (?, ?, 0, ?, ?)
				   ON DUPLICATE KEY UPDATE order_key = order_key`
		if _, err := querier.ExecContext(txCtx, insert, key, string(domain.StatusPending), now, now); err != nil {
			return apperrors.Wrap(err, "failed to insert order")
		}

		selectForUpdate := `SELECT ` + orderColumns + ` FROM orders WHERE order_key = ? FOR UPDATE`
		order, err := scanOrder(querier.QueryRowContext(txCtx, selectForUpdate, key))
		if err != nil {
			return err
		}

		if order.Apply(update, now) {
			query := `UPDATE orders SET local_token = ?, name = ?, birthdate = ?, goal = ?, email = ?,
					  inputs_authoritative = ?, status = ?, payment_status = ?, artifact_ref = ?,
					  amount_cents = ?, currency = ?, version = ?, updated_at = ?
					  WHERE order_key = ?`
			args := append(orderValues(order), key)
			if _, err := querier.ExecContext(txCtx, query, args...); err != nil {
				return apperrors.Wrap(err, "failed to update order")
			}
		}

		stored = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListByStatus retrieves up to limit orders with status, oldest first.
func (m *MySQLOrderRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ? ORDER BY created_at ASC LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanOrders(rows)
}
