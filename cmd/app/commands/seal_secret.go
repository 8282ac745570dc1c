package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Sealer encrypts configuration values into their sealed form.
type Sealer interface {
	Seal(ctx context.Context, plaintext string) (string, error)
}

// RunSealSecret reads a secret from reader when value is empty and prints its
// sealed form, ready to paste into the environment.
func RunSealSecret(ctx context.Context, sealer Sealer, streams IOTuple, value string) error {
	if value == "" {
		raw, err := readAll(streams.Reader)
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		value = strings.TrimRight(raw, "\r\n")
	}
	if value == "" {
		return fmt.Errorf("secret value is required")
	}

	sealed, err := sealer.Seal(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to seal secret: %w", err)
	}

	_, err = fmt.Fprintln(streams.Writer, sealed)
	return err
}

func readAll(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	return string(b), err
}
