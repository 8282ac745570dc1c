package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/charms/internal/database"
	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// PostgreSQLOrderRepository implements Order Record persistence for PostgreSQL databases.
type PostgreSQLOrderRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewPostgreSQLOrderRepository creates a new PostgreSQL order repository.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db:        db,
		txManager: database.NewTxManager(db),
	}
}

// Get retrieves an order by its session handle.
func (p *PostgreSQLOrderRepository) Get(ctx context.Context, key string) (*domain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_key = $1`

	return scanOrder(querier.QueryRowContext(ctx, query, key))
}

// GetByLocalToken retrieves the most recently created order carrying a client
// correlation token. A retried checkout reuses the token on a new session.
func (p *PostgreSQLOrderRepository) GetByLocalToken(ctx context.Context, token string) (*domain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE local_token = $1
			  ORDER BY created_at DESC, order_key DESC LIMIT 1`

	return scanOrder(querier.QueryRowContext(ctx, query, token))
}

// Upsert inserts a pending row when missing, locks it, merges update and writes
// the result back, all inside one transaction.
func (p *PostgreSQLOrderRepository) Upsert(
	ctx context.Context,
	key string,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	var stored *domain.Order

	err := p.txManager.WithTx(ctx, func(txCtx context.Context) error {
		querier := database.GetTx(txCtx, p.db)
		now := nowUTC()

		insert := `INSERT INTO orders (order_key, status, version, created_at, updated_at)
				   VALUES ($1, $2, 0, $3, $3)
				   ON CONFLICT (order_key) DO NOTHING`
		if _, err := querier.ExecContext(txCtx, insert, key, string(domain.StatusPending), now); err != nil {
			return apperrors.Wrap(err, "failed to insert order")
		}

		selectForUpdate := `SELECT ` + orderColumns + ` FROM orders WHERE order_key = $1 FOR UPDATE`
		order, err := scanOrder(querier.QueryRowContext(txCtx, selectForUpdate, key))
		if err != nil {
			return err
		}

		if order.Apply(update, now) {
			query := `UPDATE orders SET local_token = $2, name = $3, birthdate = $4, goal = $5, email = $6,
					  inputs_authoritative = $7, status = $8, payment_status = $9, artifact_ref = $10,
					  amount_cents = $11, currency = $12, version = $13, updated_at = $14
					  WHERE order_key = $1`
			args := append([]any{key}, orderValues(order)...)
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
func (p *PostgreSQLOrderRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanOrders(rows)
}
