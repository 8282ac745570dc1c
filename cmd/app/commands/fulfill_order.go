package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/charms/internal/orders/usecase"
)

// RunFulfillOrder fulfills one paid order from the command line. Useful when a
// customer closed the browser before the success page triggered delivery.
func RunFulfillOrder(
	ctx context.Context,
	fulfillmentUseCase usecase.FulfillmentUseCase,
	logger *slog.Logger,
	writer io.Writer,
	key string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("fulfilling order", slog.String("session_handle", key))

	result, err := fulfillmentUseCase.Fulfill(ctx, key)
	if err != nil {
		logger.Error("failed to fulfill order",
			slog.String("session_handle", key),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to fulfill order: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"session_handle": result.SessionHandle,
			"download_url":   result.DownloadURL,
			"artifact_ref":   result.ArtifactRef,
			"artifact_text":  result.ArtifactText,
		})
	}

	_, _ = fmt.Fprintf(writer, "Order %s fulfilled\n", result.SessionHandle)
	_, _ = fmt.Fprintf(writer, "Artifact: %s\n", result.ArtifactRef)
	_, _ = fmt.Fprintf(writer, "Download URL: %s\n", result.DownloadURL)
	return nil
}
