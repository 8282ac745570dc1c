package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/allisson/charms/internal/orders/domain"
)

// MemoryOrderRepository keeps order records in process memory. It backs local
// development and tests; records are lost on restart.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

// NewMemoryOrderRepository creates an empty in-memory order repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

// Get retrieves an order by its session handle.
func (m *MemoryOrderRepository) Get(_ context.Context, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[key]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *order
	return &clone, nil
}

// GetByLocalToken retrieves the most recently created order carrying a client
// correlation token.
func (m *MemoryOrderRepository) GetByLocalToken(_ context.Context, token string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []*domain.Order
	for _, order := range m.orders {
		if order.LocalToken == token {
			matches = append(matches, order)
		}
	}

	latest := latestOrder(matches)
	if latest == nil {
		return nil, domain.ErrOrderNotFound
	}
	clone := *latest
	return &clone, nil
}

// Upsert merges update into the stored order under the repository lock.
func (m *MemoryOrderRepository) Upsert(
	_ context.Context,
	key string,
	update domain.OrderUpdate,
) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := nowUTC()
	order, ok := m.orders[key]
	if !ok {
		order = domain.NewOrder(key, now)
	} else {
		clone := *order
		order = &clone
	}

	if order.Apply(update, now) || !ok {
		m.orders[key] = order
	}

	clone := *order
	return &clone, nil
}

// ListByStatus retrieves up to limit orders with status, oldest first.
func (m *MemoryOrderRepository) ListByStatus(
	_ context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]*domain.Order, 0)
	for _, order := range m.orders {
		if order.Status == status {
			clone := *order
			orders = append(orders, &clone)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].Key < orders[j].Key
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// PingContext always succeeds.
func (m *MemoryOrderRepository) PingContext(ctx context.Context) error {
	return nil
}
