// Package mocks provides testify mock implementations of the collaborators
// consumed by the order use cases.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/charms/internal/orders/domain"
)

// MockOrderRepository is a mock implementation of OrderRepository for testing.
type MockOrderRepository struct {
	mock.Mock
}

// NewMockOrderRepository creates a MockOrderRepository whose expectations are
// asserted when the test finishes.
func NewMockOrderRepository(t testingT) *MockOrderRepository {
	m := &MockOrderRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Get mocks the Get method of OrderRepository.
func (m *MockOrderRepository) Get(ctx context.Context, key string) (*domain.Order, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// GetByLocalToken mocks the GetByLocalToken method of OrderRepository.
func (m *MockOrderRepository) GetByLocalToken(ctx context.Context, token string) (*domain.Order, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// Upsert mocks the Upsert method of OrderRepository.
func (m *MockOrderRepository) Upsert(
	ctx context.Context,
	key string,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	args := m.Called(ctx, key, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

// ListByStatus mocks the ListByStatus method of OrderRepository.
func (m *MockOrderRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Order, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}
