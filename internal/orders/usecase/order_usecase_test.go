package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/usecase/mocks"
)

func TestOrderUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Session handle", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockGateway := mocks.NewMockPaymentGateway(t)

		mockRepo.On("Get", mock.Anything, "cs_test_h1").
			Return(&domain.Order{Key: "cs_test_h1", Status: domain.StatusPaid}, nil).Once()

		uc := NewOrderUseCase(mockRepo, mockGateway, time.Second)
		order, err := uc.Get(ctx, "cs_test_h1")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, order.Status)
	})

	t.Run("Correlation token resolves to the session handle", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockGateway := mocks.NewMockPaymentGateway(t)

		mockRepo.On("GetByLocalToken", mock.Anything, "tok-ana-0001").
			Return(&domain.Order{Key: "cs_test_h1", LocalToken: "tok-ana-0001"}, nil).Once()
		mockRepo.On("Get", mock.Anything, "cs_test_h1").
			Return(&domain.Order{Key: "cs_test_h1", Status: domain.StatusPending}, nil).Once()

		uc := NewOrderUseCase(mockRepo, mockGateway, time.Second)
		order, err := uc.Get(ctx, "tok-ana-0001")

		require.NoError(t, err)
		assert.Equal(t, "cs_test_h1", order.Key)
	})

	t.Run("Unknown token", func(t *testing.T) {
		mockRepo := mocks.NewMockOrderRepository(t)
		mockGateway := mocks.NewMockPaymentGateway(t)

		mockRepo.On("GetByLocalToken", mock.Anything, "tok-missing").Return(nil, domain.ErrOrderNotFound).Once()

		uc := NewOrderUseCase(mockRepo, mockGateway, time.Second)
		order, err := uc.Get(ctx, "tok-missing")

		assert.Nil(t, order)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("Blank identifier", func(t *testing.T) {
		uc := NewOrderUseCase(mocks.NewMockOrderRepository(t), mocks.NewMockPaymentGateway(t), time.Second)

		_, err := uc.Get(ctx, "   ")

		assert.ErrorIs(t, err, domain.ErrMissingIdentifier)
	})
}
