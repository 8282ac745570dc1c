package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/charms/internal/orders/domain"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockArtifactStore is a mock implementation of ArtifactStore for testing.
type MockArtifactStore struct {
	mock.Mock
}

// NewMockArtifactStore creates a MockArtifactStore with automatic expectation assertion.
func NewMockArtifactStore(t testingT) *MockArtifactStore {
	m := &MockArtifactStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Put mocks the Put method of ArtifactStore.
func (m *MockArtifactStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

// ReadURL mocks the ReadURL method of ArtifactStore.
func (m *MockArtifactStore) ReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

// MockPaymentGateway is a mock implementation of PaymentGateway for testing.
// IsSessionHandle is not mocked: it recognizes the "cs_" prefix.
type MockPaymentGateway struct {
	mock.Mock
}

// NewMockPaymentGateway creates a MockPaymentGateway with automatic expectation assertion.
func NewMockPaymentGateway(t testingT) *MockPaymentGateway {
	m := &MockPaymentGateway{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreateSession mocks the CreateSession method of PaymentGateway.
func (m *MockPaymentGateway) CreateSession(
	ctx context.Context,
	req domain.SessionRequest,
) (*domain.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// VerifyEvent mocks the VerifyEvent method of PaymentGateway.
func (m *MockPaymentGateway) VerifyEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentEvent), args.Error(1)
}

// RetrieveSession mocks the RetrieveSession method of PaymentGateway.
func (m *MockPaymentGateway) RetrieveSession(ctx context.Context, handle string) (*domain.Session, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// IsSessionHandle recognizes checkout session handles by prefix.
func (m *MockPaymentGateway) IsSessionHandle(raw string) bool {
	return len(raw) > 3 && raw[:3] == "cs_"
}

// MockArtifactRenderer is a mock implementation of ArtifactRenderer for testing.
type MockArtifactRenderer struct {
	mock.Mock
}

// NewMockArtifactRenderer creates a MockArtifactRenderer with automatic expectation assertion.
func NewMockArtifactRenderer(t testingT) *MockArtifactRenderer {
	m := &MockArtifactRenderer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Render mocks the Render method of ArtifactRenderer.
func (m *MockArtifactRenderer) Render(ctx context.Context, inputs domain.CustomerInputs) (*domain.Artifact, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}
