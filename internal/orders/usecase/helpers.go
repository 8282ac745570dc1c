package usecase

import (
	"context"
	"time"

	"github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// withTimeout bounds ctx by d; a non-positive d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// resolveHandle turns a raw identifier into a provider session handle. A legacy
// correlation token is dereferenced once through the order store.
func resolveHandle(
	ctx context.Context,
	repo OrderRepository,
	isSessionHandle func(string) bool,
	rawID string,
) (string, error) {
	key, err := domain.ParseOrderKey(rawID, isSessionHandle)
	if err != nil {
		return "", err
	}
	if key.IsProvider() {
		return key.Value(), nil
	}

	order, err := repo.GetByLocalToken(ctx, key.Value())
	if err != nil {
		return "", err
	}
	return order.Key, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.ErrNotFound)
}

func errorIs(err, target error) bool {
	return errors.Is(err, target)
}

func stringPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
