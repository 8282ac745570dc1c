package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/charms/internal/orders/usecase"
)

// RunShowOrder prints the status of one order. Customer inputs are never printed.
func RunShowOrder(
	ctx context.Context,
	orderUseCase usecase.OrderUseCase,
	logger *slog.Logger,
	writer io.Writer,
	key string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	order, err := orderUseCase.Get(ctx, key)
	if err != nil {
		logger.Error("failed to load order", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to load order: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"session_handle": order.Key,
			"status":         order.Status.String(),
			"payment_status": order.PaymentStatus,
			"artifact_ref":   order.ArtifactRef,
			"amount_cents":   order.AmountCents,
			"currency":       order.Currency,
			"version":        order.Version,
			"created_at":     order.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at":     order.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	_, _ = fmt.Fprintf(writer, "Session: %s\n", order.Key)
	_, _ = fmt.Fprintf(writer, "Status: %s\n", order.Status)
	_, _ = fmt.Fprintf(writer, "Payment status: %s\n", order.PaymentStatus)
	_, _ = fmt.Fprintf(writer, "Amount: %d %s\n", order.AmountCents, order.Currency)
	if order.ArtifactRef != "" {
		_, _ = fmt.Fprintf(writer, "Artifact: %s\n", order.ArtifactRef)
	}
	_, _ = fmt.Fprintf(writer, "Updated: %s\n", order.UpdatedAt.UTC().Format(time.RFC3339))
	return nil
}
