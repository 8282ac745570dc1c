// Package usecase implements the order fulfillment pipeline: checkout initiation,
// payment event processing and artifact fulfillment. Use cases reach the order
// store, the payment provider, the renderer and the artifact store only through
// the interfaces declared here, so every collaborator can be replaced in tests.
package usecase

import (
	"context"
	"time"

	"github.com/allisson/charms/internal/orders/domain"
)

// OrderRepository defines the interface for Order Record persistence operations.
type OrderRepository interface {
	// Get returns the order stored under a provider session handle or domain.ErrOrderNotFound.
	Get(ctx context.Context, key string) (*domain.Order, error)
	// GetByLocalToken returns the order that carries the client correlation token.
	GetByLocalToken(ctx context.Context, token string) (*domain.Order, error)
	// Upsert merges update into the order stored under key, creating it when
	// missing, and returns the stored state. Concurrent upserts of one key never
	// interleave partially.
	Upsert(ctx context.Context, key string, update domain.OrderUpdate) (*domain.Order, error)
	// ListByStatus returns up to limit orders with the given status, oldest first.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Order, error)
}

// ArtifactStore defines the interface for rendered artifact persistence.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	ReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PaymentGateway defines the interface to the payment provider.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.Session, error)
	// VerifyEvent authenticates a raw webhook payload against its signature header.
	VerifyEvent(payload []byte, signature string) (*domain.PaymentEvent, error)
	RetrieveSession(ctx context.Context, handle string) (*domain.Session, error)
	// IsSessionHandle reports whether raw has the provider's session handle format.
	IsSessionHandle(raw string) bool
}

// ArtifactRenderer defines the interface for turning customer inputs into a charm.
type ArtifactRenderer interface {
	Render(ctx context.Context, inputs domain.CustomerInputs) (*domain.Artifact, error)
}

// CheckoutUseCase starts a paid order.
type CheckoutUseCase interface {
	Initiate(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

// PaymentEventUseCase consumes payment provider webhook deliveries.
type PaymentEventUseCase interface {
	// Process returns an error only when the payload fails the authenticity check.
	Process(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error)
}

// FulfillmentUseCase renders, stores and delivers charms for paid orders.
type FulfillmentUseCase interface {
	Fulfill(ctx context.Context, rawID string) (*FulfillmentResult, error)
	// FulfillPending fulfills up to limit PAID orders with bounded concurrency.
	FulfillPending(ctx context.Context, limit, concurrency int) (*BatchResult, error)
}

// OrderUseCase exposes read access to order records.
type OrderUseCase interface {
	// Get resolves rawID (session handle or legacy correlation token) and returns the order.
	Get(ctx context.Context, rawID string) (*domain.Order, error)
}
