package usecase

import (
	"context"
	"time"

	"github.com/allisson/charms/internal/metrics"
	"github.com/allisson/charms/internal/orders/domain"
)

const metricsDomain = "orders"

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// checkoutUseCaseWithMetrics decorates CheckoutUseCase with metrics instrumentation.
type checkoutUseCaseWithMetrics struct {
	next    CheckoutUseCase
	metrics metrics.BusinessMetrics
}

// NewCheckoutUseCaseWithMetrics wraps a CheckoutUseCase with metrics recording.
func NewCheckoutUseCaseWithMetrics(useCase CheckoutUseCase, m metrics.BusinessMetrics) CheckoutUseCase {
	return &checkoutUseCaseWithMetrics{next: useCase, metrics: m}
}

// Initiate records metrics for checkout initiation.
func (c *checkoutUseCaseWithMetrics) Initiate(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	start := time.Now()
	result, err := c.next.Initiate(ctx, input)

	status := statusOf(err)
	c.metrics.RecordOperation(ctx, metricsDomain, "checkout_initiate", status)
	c.metrics.RecordDuration(ctx, metricsDomain, "checkout_initiate", time.Since(start), status)

	return result, err
}

// paymentEventUseCaseWithMetrics decorates PaymentEventUseCase with metrics instrumentation.
type paymentEventUseCaseWithMetrics struct {
	next    PaymentEventUseCase
	metrics metrics.BusinessMetrics
}

// NewPaymentEventUseCaseWithMetrics wraps a PaymentEventUseCase with metrics recording.
func NewPaymentEventUseCaseWithMetrics(
	useCase PaymentEventUseCase,
	m metrics.BusinessMetrics,
) PaymentEventUseCase {
	return &paymentEventUseCaseWithMetrics{next: useCase, metrics: m}
}

// Process records metrics and the delivery outcome for webhook processing.
func (p *paymentEventUseCaseWithMetrics) Process(
	ctx context.Context,
	payload []byte,
	signature string,
) (WebhookOutcome, error) {
	start := time.Now()
	outcome, err := p.next.Process(ctx, payload, signature)

	status := statusOf(err)
	p.metrics.RecordOperation(ctx, metricsDomain, "payment_event_process", status)
	p.metrics.RecordDuration(ctx, metricsDomain, "payment_event_process", time.Since(start), status)
	p.metrics.RecordOutcome(ctx, metricsDomain, "payment_event_process", string(outcome))

	return outcome, err
}

// fulfillmentUseCaseWithMetrics decorates FulfillmentUseCase with metrics instrumentation.
type fulfillmentUseCaseWithMetrics struct {
	next    FulfillmentUseCase
	metrics metrics.BusinessMetrics
}

// NewFulfillmentUseCaseWithMetrics wraps a FulfillmentUseCase with metrics recording.
func NewFulfillmentUseCaseWithMetrics(
	useCase FulfillmentUseCase,
	m metrics.BusinessMetrics,
) FulfillmentUseCase {
	return &fulfillmentUseCaseWithMetrics{next: useCase, metrics: m}
}

// Fulfill records metrics for artifact fulfillment.
func (f *fulfillmentUseCaseWithMetrics) Fulfill(ctx context.Context, rawID string) (*FulfillmentResult, error) {
	start := time.Now()
	result, err := f.next.Fulfill(ctx, rawID)

	status := statusOf(err)
	f.metrics.RecordOperation(ctx, metricsDomain, "fulfillment_fulfill", status)
	f.metrics.RecordDuration(ctx, metricsDomain, "fulfillment_fulfill", time.Since(start), status)
	if err != nil {
		f.metrics.RecordOutcome(ctx, metricsDomain, "fulfillment_fulfill", fulfillmentFailure(err))
	}

	return result, err
}

// FulfillPending records metrics for batch fulfillment.
func (f *fulfillmentUseCaseWithMetrics) FulfillPending(
	ctx context.Context,
	limit, concurrency int,
) (*BatchResult, error) {
	start := time.Now()
	result, err := f.next.FulfillPending(ctx, limit, concurrency)

	status := statusOf(err)
	f.metrics.RecordOperation(ctx, metricsDomain, "fulfillment_fulfill_pending", status)
	f.metrics.RecordDuration(ctx, metricsDomain, "fulfillment_fulfill_pending", time.Since(start), status)

	return result, err
}

// fulfillmentFailure labels a fulfillment error by its domain cause.
func fulfillmentFailure(err error) string {
	switch {
	case isNotFound(err):
		return "order_not_found"
	case errorIs(err, domain.ErrPaymentNotCompleted):
		return "payment_not_completed"
	case errorIs(err, domain.ErrMissingIdentifier):
		return "missing_identifier"
	default:
		return "fulfillment_failed"
	}
}
