// Package repository implements Order Record persistence for PostgreSQL, MySQL,
// DynamoDB and an in-process map. Every backend merges partial updates with
// domain.Order.Apply inside a single atomic read-modify-write per key.
package repository

import (
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// orderColumns is the column list shared by every SELECT.
const orderColumns = `order_key, local_token, name, birthdate, goal, email, inputs_authoritative,
		status, payment_status, artifact_ref, amount_cents, currency, version, created_at, updated_at`

// latestOrder returns the most recently created order, breaking ties by key so
// every backend resolves a reused correlation token to the same record.
func latestOrder(orders []*domain.Order) *domain.Order {
	var latest *domain.Order
	for _, order := range orders {
		if latest == nil || order.CreatedAt.After(latest.CreatedAt) ||
			(order.CreatedAt.Equal(latest.CreatedAt) && order.Key > latest.Key) {
			latest = order
		}
	}
	return latest
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOrder reads one order row. sql.ErrNoRows becomes domain.ErrOrderNotFound.
func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var localToken sql.NullString
	var status string

	err := row.Scan(
		&order.Key,
		&localToken,
		&order.Inputs.Name,
		&order.Inputs.Birthdate,
		&order.Inputs.Goal,
		&order.Inputs.Email,
		&order.InputsAuthoritative,
		&status,
		&order.PaymentStatus,
		&order.ArtifactRef,
		&order.AmountCents,
		&order.Currency,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to scan order")
	}

	order.LocalToken = localToken.String
	order.Status = domain.Status(status)
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return &order, nil
}

// scanOrders drains rows into a slice.
func scanOrders(rows *sql.Rows) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}
	return orders, nil
}

// nullableToken stores an empty correlation token as NULL so the unique index
// only covers real tokens.
func nullableToken(token string) sql.NullString {
	return sql.NullString{String: token, Valid: token != ""}
}

// orderValues lists the mutable columns in UPDATE order after the key.
func orderValues(order *domain.Order) []any {
	return []any{
		nullableToken(order.LocalToken),
		order.Inputs.Name,
		order.Inputs.Birthdate,
		order.Inputs.Goal,
		order.Inputs.Email,
		order.InputsAuthoritative,
		string(order.Status),
		order.PaymentStatus,
		order.ArtifactRef,
		order.AmountCents,
		order.Currency,
		order.Version,
		order.UpdatedAt,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
