package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/charms/internal/orders/domain"
)

// fulfillmentUseCase implements FulfillmentUseCase.
type fulfillmentUseCase struct {
	orderRepo     OrderRepository
	gateway       PaymentGateway
	renderer      ArtifactRenderer
	artifactStore ArtifactStore
	config        FulfillmentConfig
	logger        *slog.Logger
}

// NewFulfillmentUseCase creates a new FulfillmentUseCase.
func NewFulfillmentUseCase(
	orderRepo OrderRepository,
	gateway PaymentGateway,
	renderer ArtifactRenderer,
	artifactStore ArtifactStore,
	config FulfillmentConfig,
	logger *slog.Logger,
) FulfillmentUseCase {
	return &fulfillmentUseCase{
		orderRepo:     orderRepo,
		gateway:       gateway,
		renderer:      renderer,
		artifactStore: artifactStore,
		config:        config,
		logger:        logger,
	}
}

// Fulfill verifies payment, renders the charm for the order identified by rawID,
// stores it under a key derived from the session handle and marks the order
// FULFILLED. Work continues when the caller goes away: every write is idempotent.
func (f *fulfillmentUseCase) Fulfill(ctx context.Context, rawID string) (*FulfillmentResult, error) {
	ctx = context.WithoutCancel(ctx)

	lookupCtx, cancel := withTimeout(ctx, f.config.StoreTimeout)
	handle, err := resolveHandle(lookupCtx, f.orderRepo, f.gateway.IsSessionHandle, rawID)
	cancel()
	if err != nil {
		return nil, err
	}

	verification := f.verify(ctx, handle)
	switch verification.Outcome {
	case domain.VerifiedUnpaid:
		f.markFailed(ctx, handle, verification.PaymentStatus)
		return nil, fmt.Errorf(
			"%w: payment status %q",
			domain.ErrPaymentNotCompleted,
			verification.PaymentStatus,
		)
	case domain.VerificationUnavailable:
		f.logger.Warn("payment verification unavailable, falling back to order record",
			slog.String("session_handle", handle),
			slog.Any("error", verification.Err),
		)
	}

	order, err := f.load(ctx, handle)
	if err != nil {
		return nil, err
	}
	if verification.Outcome == domain.VerificationUnavailable && !order.Status.IsPaid() {
		return nil, fmt.Errorf("%w: order status %s", domain.ErrPaymentNotCompleted, order.Status)
	}

	return f.deliver(ctx, order, verification)
}

// verify asks the provider for the session's payment status.
func (f *fulfillmentUseCase) verify(ctx context.Context, handle string) domain.PaymentVerification {
	gatewayCtx, cancel := withTimeout(ctx, f.config.GatewayTimeout)
	defer cancel()

	session, err := f.gateway.RetrieveSession(gatewayCtx, handle)
	if err != nil {
		return domain.Unavailable(err)
	}
	if session.PaymentStatus == domain.PaymentStatusPaid {
		return domain.Paid(session.PaymentStatus)
	}
	return domain.Unpaid(session.PaymentStatus)
}

// markFailed records an explicit unpaid report on an existing order. The
// status merge keeps PAID and FULFILLED orders untouched.
func (f *fulfillmentUseCase) markFailed(ctx context.Context, handle, paymentStatus string) {
	storeCtx, cancel := withTimeout(ctx, f.config.StoreTimeout)
	defer cancel()

	if _, err := f.orderRepo.Get(storeCtx, handle); err != nil {
		if !isNotFound(err) {
			f.logger.Warn("failed to load order", slog.String("session_handle", handle), slog.Any("error", err))
		}
		return
	}

	_, err := f.orderRepo.Upsert(storeCtx, handle, domain.OrderUpdate{
		Status:        domain.StatusPtr(domain.StatusFailed),
		PaymentStatus: stringPtr(paymentStatus),
	})
	if err != nil {
		f.logger.Warn("failed to mark order as failed",
			slog.String("session_handle", handle),
			slog.Any("error", err),
		)
	}
}

func (f *fulfillmentUseCase) load(ctx context.Context, handle string) (*domain.Order, error) {
	storeCtx, cancel := withTimeout(ctx, f.config.StoreTimeout)
	defer cancel()

	order, err := f.orderRepo.Get(storeCtx, handle)
	if err != nil {
		if isNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load order: %w", domain.ErrFulfillment, err)
	}
	return order, nil
}

// deliver renders, stores and finalizes. Any failure leaves the order status as it was.
func (f *fulfillmentUseCase) deliver(
	ctx context.Context,
	order *domain.Order,
	verification domain.PaymentVerification,
) (*FulfillmentResult, error) {
	renderCtx, cancelRender := withTimeout(ctx, f.config.RenderTimeout)
	artifact, err := f.renderer.Render(renderCtx, order.Inputs)
	cancelRender()
	if err != nil {
		return nil, fmt.Errorf("%w: render: %w", domain.ErrFulfillment, err)
	}

	key := domain.ArtifactKey(order.Key)
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = domain.ArtifactContentType
	}

	storeCtx, cancelStore := withTimeout(ctx, f.config.StoreTimeout)
	defer cancelStore()

	if err := f.artifactStore.Put(storeCtx, key, artifact.Image, contentType); err != nil {
		return nil, fmt.Errorf("%w: store artifact: %w", domain.ErrFulfillment, err)
	}

	downloadURL, err := f.artifactStore.ReadURL(storeCtx, key, f.config.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign artifact url: %w", domain.ErrFulfillment, err)
	}

	update := domain.OrderUpdate{
		Status:      domain.StatusPtr(domain.StatusFulfilled),
		ArtifactRef: stringPtr(key),
	}
	if verification.Outcome == domain.VerifiedPaid {
		update.PaymentStatus = stringPtr(verification.PaymentStatus)
	}

	finalizeCtx, cancelFinalize := withTimeout(ctx, f.config.StoreTimeout)
	defer cancelFinalize()

	if _, err := f.orderRepo.Upsert(finalizeCtx, order.Key, update); err != nil {
		return nil, fmt.Errorf("%w: finalize order: %w", domain.ErrFulfillment, err)
	}

	f.logger.Info("order fulfilled",
		slog.String("session_handle", order.Key),
		slog.String("artifact_ref", key),
	)

	return &FulfillmentResult{
		SessionHandle: order.Key,
		DownloadURL:   downloadURL,
		ArtifactText:  artifact.Text,
		ArtifactRef:   key,
	}, nil
}

// FulfillPending fulfills PAID orders that have no artifact yet, e.g. when the
// customer never came back from the payment page.
func (f *fulfillmentUseCase) FulfillPending(
	ctx context.Context,
	limit, concurrency int,
) (*BatchResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	listCtx, cancel := withTimeout(ctx, f.config.StoreTimeout)
	orders, err := f.orderRepo.ListByStatus(listCtx, domain.StatusPaid, limit)
	cancel()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		Attempted: len(orders),
		Failed:    make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, order := range orders {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			_, err := f.Fulfill(gctx, order.Key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[order.Key] = err
				return nil
			}
			result.Fulfilled = append(result.Fulfilled, order.Key)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}
