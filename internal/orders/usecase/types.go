package usecase

import (
	"time"
)

// CheckoutInput is the customer supplied data of a checkout request.
type CheckoutInput struct {
	Name             string
	Birthdate        string
	Goal             string
	Email            string
	AmountCents      *int64 // nil means the configured price
	CorrelationToken string // generated when empty
}

// CheckoutResult is returned to the browser, which redirects to CheckoutURL.
type CheckoutResult struct {
	SessionHandle    string
	CheckoutURL      string
	CorrelationToken string
}

// CheckoutConfig holds the product and redirect settings of the checkout initiator.
type CheckoutConfig struct {
	PublicBaseURL  string
	ProductName    string
	PriceCents     int64
	MaxPriceCents  int64
	Currency       string
	GatewayTimeout time.Duration
	StoreTimeout   time.Duration
}

// FulfillmentConfig holds the timeouts and download link lifetime of the orchestrator.
type FulfillmentConfig struct {
	URLTTL         time.Duration
	GatewayTimeout time.Duration
	RenderTimeout  time.Duration
	StoreTimeout   time.Duration
}

// FulfillmentResult is the delivery descriptor of a fulfilled order.
type FulfillmentResult struct {
	SessionHandle string
	DownloadURL   string
	ArtifactText  string
	ArtifactRef   string
}

// BatchResult summarizes a FulfillPending run.
type BatchResult struct {
	Attempted int
	Fulfilled []string
	Failed    map[string]error
}

// WebhookOutcome records what the payment event processor did with a delivery.
type WebhookOutcome string

const (
	// OutcomeRejected means the delivery failed the authenticity check.
	OutcomeRejected WebhookOutcome = "rejected"
	// OutcomeIgnoredEventType means the event type is not actionable.
	OutcomeIgnoredEventType WebhookOutcome = "ignored_event_type"
	// OutcomeIgnoredUnpaid means the checkout completed without payment.
	OutcomeIgnoredUnpaid WebhookOutcome = "ignored_unpaid"
	// OutcomeProcessed means the order record was promoted to PAID.
	OutcomeProcessed WebhookOutcome = "processed"
	// OutcomePersistFailed means the upsert failed; the delivery is still acknowledged.
	OutcomePersistFailed WebhookOutcome = "persist_failed"
)
