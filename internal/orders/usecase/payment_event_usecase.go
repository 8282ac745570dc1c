package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// paymentEventUseCase implements PaymentEventUseCase.
type paymentEventUseCase struct {
	orderRepo    OrderRepository
	gateway      PaymentGateway
	storeTimeout time.Duration
	logger       *slog.Logger
}

// NewPaymentEventUseCase creates a new PaymentEventUseCase.
func NewPaymentEventUseCase(
	orderRepo OrderRepository,
	gateway PaymentGateway,
	storeTimeout time.Duration,
	logger *slog.Logger,
) PaymentEventUseCase {
	return &paymentEventUseCase{
		orderRepo:    orderRepo,
		gateway:      gateway,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

// Process authenticates the delivery and promotes the order to PAID with the
// event metadata. Every delivery that passes the authenticity check is
// acknowledged: persistence failures are logged and reported as
// OutcomePersistFailed, never as an error.
func (p *paymentEventUseCase) Process(
	ctx context.Context,
	payload []byte,
	signature string,
) (WebhookOutcome, error) {
	event, err := p.gateway.VerifyEvent(payload, signature)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidSignature) {
			err = fmt.Errorf("%w: %w", domain.ErrInvalidSignature, err)
		}
		return OutcomeRejected, err
	}

	if event.Type != domain.EventCheckoutCompleted || event.Session == nil {
		p.logger.Debug("ignoring payment event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
		)
		return OutcomeIgnoredEventType, nil
	}

	session := event.Session
	if session.PaymentStatus != domain.PaymentStatusPaid {
		p.logger.Info("checkout completed without payment",
			slog.String("event_id", event.ID),
			slog.String("session_handle", session.Handle),
			slog.String("payment_status", session.PaymentStatus),
		)
		return OutcomeIgnoredUnpaid, nil
	}

	// The provider does not wait for us; finish the write even if the request goes away.
	storeCtx, cancel := withTimeout(context.WithoutCancel(ctx), p.storeTimeout)
	defer cancel()

	if _, err := p.orderRepo.Upsert(storeCtx, session.Handle, paidUpdate(session)); err != nil {
		p.logger.Error("failed to persist paid order",
			slog.String("event_id", event.ID),
			slog.String("session_handle", session.Handle),
			slog.Any("error", err),
		)
		return OutcomePersistFailed, nil
	}

	p.logger.Info("order paid",
		slog.String("event_id", event.ID),
		slog.String("session_handle", session.Handle),
	)
	return OutcomeProcessed, nil
}

// paidUpdate builds the authoritative PAID update carried by a completed session.
func paidUpdate(session *domain.Session) domain.OrderUpdate {
	update := domain.OrderUpdate{
		Status:        domain.StatusPtr(domain.StatusPaid),
		PaymentStatus: stringPtr(session.PaymentStatus),
	}

	inputs := domain.InputsFromMetadata(session.Metadata)
	if !inputs.IsZero() {
		update.Inputs = &inputs
		update.InputsAuthoritative = true
	}
	if token := session.Metadata[domain.MetadataCorrelationToken]; token != "" {
		update.LocalToken = stringPtr(token)
	}
	if session.AmountCents > 0 {
		update.AmountCents = int64Ptr(session.AmountCents)
	}
	if session.Currency != "" {
		update.Currency = stringPtr(session.Currency)
	}
	return update
}
