package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/metrics"
	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/usecase/mocks"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordOutcome(ctx context.Context, domain, operation, outcome string) {
	m.Called(ctx, domain, operation, outcome)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func (m *mockBusinessMetrics) expect(ctx context.Context, operation, status string) {
	m.On("RecordOperation", ctx, "orders", operation, status).Return().Once()
	m.On("RecordDuration", ctx, "orders", operation, mock.AnythingOfType("time.Duration"), status).
		Return().
		Once()
}

func TestCheckoutMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockGateway := mocks.NewMockPaymentGateway(t)
		mockMetrics := &mockBusinessMetrics{}

		mockGateway.On("CreateSession", mock.Anything, mock.Anything).
			Return(&domain.Session{Handle: "cs_test_h1", URL: "https://pay"}, nil).Once()
		mockRepo.On("Upsert", mock.Anything, "cs_test_h1", mock.Anything).
			Return(&domain.Order{Key: "cs_test_h1"}, nil).Once()
		mockMetrics.expect(ctx, "checkout_initiate", "success")

		uc := NewCheckoutUseCaseWithMetrics(
			NewCheckoutUseCase(mockRepo, mockGateway, testCheckoutConfig(), newTestLogger()),
			mockMetrics,
		)
		_, err := uc.Initiate(ctx, anaCheckoutInput())

		require.NoError(t, err)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockMetrics := &mockBusinessMetrics{}
		mockMetrics.expect(ctx, "checkout_initiate", "error")

		uc := NewCheckoutUseCaseWithMetrics(
			NewCheckoutUseCase(
				mocks.NewMockOrderRepository(t),
				mocks.NewMockPaymentGateway(t),
				testCheckoutConfig(),
				newTestLogger(),
			),
			mockMetrics,
		)
		_, err := uc.Initiate(ctx, CheckoutInput{})

		assert.ErrorIs(t, err, domain.ErrValidation)
		mockMetrics.AssertExpectations(t)
	})
}

func TestPaymentEventMetricsDecorator(t *testing.T) {
	ctx := context.Background()
	payload := []byte(`{}`)

	mockRepo := mocks.NewMockOrderRepository(t)
	mockGateway := mocks.NewMockPaymentGateway(t)
	mockMetrics := &mockBusinessMetrics{}

	mockGateway.On("VerifyEvent", payload, "sig").
		Return(&domain.PaymentEvent{ID: "evt_1", Type: "charge.refunded"}, nil).Once()
	mockMetrics.expect(ctx, "payment_event_process", "success")
	mockMetrics.On("RecordOutcome", ctx, "orders", "payment_event_process", "ignored_event_type").Return().Once()

	uc := NewPaymentEventUseCaseWithMetrics(
		NewPaymentEventUseCase(mockRepo, mockGateway, time.Second, newTestLogger()),
		mockMetrics,
	)
	outcome, err := uc.Process(ctx, payload, "sig")

	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredEventType, outcome)
	mockMetrics.AssertExpectations(t)
}

func TestFulfillmentMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_RecordsFailureOutcome", func(t *testing.T) {
		m := newFulfillmentMocks(t)
		mockMetrics := &mockBusinessMetrics{}

		m.gateway.On("RetrieveSession", mock.Anything, "cs_test_h1").
			Return(&domain.Session{PaymentStatus: domain.PaymentStatusPaid}, nil).Once()
		m.repo.On("Get", mock.Anything, "cs_test_h1").Return(nil, domain.ErrOrderNotFound).Once()
		mockMetrics.expect(ctx, "fulfillment_fulfill", "error")
		mockMetrics.On("RecordOutcome", ctx, "orders", "fulfillment_fulfill", "order_not_found").Return().Once()

		uc := NewFulfillmentUseCaseWithMetrics(m.useCase(testFulfillmentConfig()), mockMetrics)
		_, err := uc.Fulfill(ctx, "cs_test_h1")

		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Success_FulfillPending", func(t *testing.T) {
		m := newFulfillmentMocks(t)
		mockMetrics := &mockBusinessMetrics{}

		m.repo.On("ListByStatus", mock.Anything, domain.StatusPaid, 1).Return([]*domain.Order{}, nil).Once()
		mockMetrics.expect(ctx, "fulfillment_fulfill_pending", "success")

		uc := NewFulfillmentUseCaseWithMetrics(m.useCase(testFulfillmentConfig()), mockMetrics)
		result, err := uc.FulfillPending(ctx, 1, 1)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Attempted)
		mockMetrics.AssertExpectations(t)
	})
}

func TestFulfillmentFailure(t *testing.T) {
	assert.Equal(t, "order_not_found", fulfillmentFailure(domain.ErrOrderNotFound))
	assert.Equal(t, "payment_not_completed", fulfillmentFailure(domain.ErrPaymentNotCompleted))
	assert.Equal(t, "missing_identifier", fulfillmentFailure(domain.ErrMissingIdentifier))
	assert.Equal(t, "fulfillment_failed", fulfillmentFailure(domain.ErrFulfillment))
}
