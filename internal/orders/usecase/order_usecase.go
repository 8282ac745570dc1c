package usecase

import (
	"context"
	"time"

	"github.com/allisson/charms/internal/orders/domain"
)

// orderUseCase implements OrderUseCase.
type orderUseCase struct {
	orderRepo    OrderRepository
	gateway      PaymentGateway
	storeTimeout time.Duration
}

// NewOrderUseCase creates a new OrderUseCase.
func NewOrderUseCase(orderRepo OrderRepository, gateway PaymentGateway, storeTimeout time.Duration) OrderUseCase {
	return &orderUseCase{
		orderRepo:    orderRepo,
		gateway:      gateway,
		storeTimeout: storeTimeout,
	}
}

// Get resolves rawID and loads the order.
func (o *orderUseCase) Get(ctx context.Context, rawID string) (*domain.Order, error) {
	storeCtx, cancel := withTimeout(ctx, o.storeTimeout)
	defer cancel()

	handle, err := resolveHandle(storeCtx, o.orderRepo, o.gateway.IsSessionHandle, rawID)
	if err != nil {
		return nil, err
	}
	return o.orderRepo.Get(storeCtx, handle)
}
