package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/allisson/charms/internal/orders/usecase"
)

// RunFulfillPending sweeps PAID orders that were never fulfilled. A batch with
// failed orders still exits with an error so cron wrappers can alert on it.
func RunFulfillPending(
	ctx context.Context,
	fulfillmentUseCase usecase.FulfillmentUseCase,
	logger *slog.Logger,
	writer io.Writer,
	limit int,
	concurrency int,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if limit <= 0 {
		return fmt.Errorf("invalid limit: %d (must be greater than zero)", limit)
	}
	if concurrency <= 0 {
		return fmt.Errorf("invalid concurrency: %d (must be greater than zero)", concurrency)
	}

	logger.Info("fulfilling pending orders",
		slog.Int("limit", limit),
		slog.Int("concurrency", concurrency),
	)

	result, err := fulfillmentUseCase.FulfillPending(ctx, limit, concurrency)
	if err != nil {
		return fmt.Errorf("failed to fulfill pending orders: %w", err)
	}

	failedKeys := make([]string, 0, len(result.Failed))
	for key := range result.Failed {
		failedKeys = append(failedKeys, key)
	}
	sort.Strings(failedKeys)

	if format == "json" {
		failed := make(map[string]string, len(result.Failed))
		for key, ferr := range result.Failed {
			failed[key] = ferr.Error()
		}
		if err := writeJSON(writer, map[string]any{
			"attempted": result.Attempted,
			"fulfilled": result.Fulfilled,
			"failed":    failed,
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Attempted: %d\n", result.Attempted)
		_, _ = fmt.Fprintf(writer, "Fulfilled: %d\n", len(result.Fulfilled))
		_, _ = fmt.Fprintf(writer, "Failed: %d\n", len(failedKeys))
		for _, key := range failedKeys {
			_, _ = fmt.Fprintf(writer, "  %s: %v\n", key, result.Failed[key])
		}
	}

	logger.Info("pending orders processed",
		slog.Int("attempted", result.Attempted),
		slog.Int("fulfilled", len(result.Fulfilled)),
		slog.Int("failed", len(failedKeys)),
	)

	if len(failedKeys) > 0 {
		return fmt.Errorf("%d of %d orders failed to fulfill", len(failedKeys), result.Attempted)
	}
	return nil
}
