// Package mocks provides testify mocks of the order use cases for handler tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/usecase"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockCheckoutUseCase is a mock implementation of CheckoutUseCase for testing.
type MockCheckoutUseCase struct {
	mock.Mock
}

// NewMockCheckoutUseCase creates a MockCheckoutUseCase with automatic expectation assertion.
func NewMockCheckoutUseCase(t testingT) *MockCheckoutUseCase {
	m := &MockCheckoutUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Initiate mocks the Initiate method of CheckoutUseCase.
func (m *MockCheckoutUseCase) Initiate(
	ctx context.Context,
	input usecase.CheckoutInput,
) (*usecase.CheckoutResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CheckoutResult), args.Error(1)
}

// MockPaymentEventUseCase is a mock implementation of PaymentEventUseCase for testing.
type MockPaymentEventUseCase struct {
	mock.Mock
}

// NewMockPaymentEventUseCase creates a MockPaymentEventUseCase with automatic expectation assertion.
func NewMockPaymentEventUseCase(t testingT) *MockPaymentEventUseCase {
	m := &MockPaymentEventUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Process mocks the Process method of PaymentEventUseCase.
func (m *MockPaymentEventUseCase) Process(
	ctx context.Context,
	payload []byte,
	signature string,
) (usecase.WebhookOutcome, error) {
	args := m.Called(ctx, payload, signature)
	return args.Get(0).(usecase.WebhookOutcome), args.Error(1)
}

// MockFulfillmentUseCase is a mock implementation of FulfillmentUseCase for testing.
type MockFulfillmentUseCase struct {
	mock.Mock
}

// NewMockFulfillmentUseCase creates a MockFulfillmentUseCase with automatic expectation assertion.
func NewMockFulfillmentUseCase(t testingT) *MockFulfillmentUseCase {
	m := &MockFulfillmentUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Fulfill mocks the Fulfill method of FulfillmentUseCase.
func (m *MockFulfillmentUseCase) Fulfill(ctx context.Context, rawID string) (*usecase.FulfillmentResult, error) {
	args := m.Called(ctx, rawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.FulfillmentResult), args.Error(1)
}

// FulfillPending mocks the FulfillPending method of FulfillmentUseCase.
func (m *MockFulfillmentUseCase) FulfillPending(
	ctx context.Context,
	limit, concurrency int,
) (*usecase.BatchResult, error) {
	args := m.Called(ctx, limit, concurrency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.BatchResult), args.Error(1)
}

// MockOrderUseCase is a mock implementation of OrderUseCase for testing.
type MockOrderUseCase struct {
	mock.Mock
}

// NewMockOrderUseCase creates a MockOrderUseCase with automatic expectation assertion.
func NewMockOrderUseCase(t testingT) *MockOrderUseCase {
	m := &MockOrderUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Get mocks the Get method of OrderUseCase.
func (m *MockOrderUseCase) Get(ctx context.Context, rawID string) (*domain.Order, error) {
	args := m.Called(ctx, rawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
