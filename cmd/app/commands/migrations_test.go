package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type ensurerFunc func(ctx context.Context) error

func (f ensurerFunc) EnsureTable(ctx context.Context) error {
	return f(ctx)
}

func TestRunMigrations(t *testing.T) {
	logger := discardLogger()

	t.Run("invalid-driver", func(t *testing.T) {
		err := RunMigrations(logger, "invalid", "postgres://localhost")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create migrate instance")
	})

	t.Run("invalid-connection-string", func(t *testing.T) {
		err := RunMigrations(logger, "postgres", "invalid-connection-string")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create migrate instance")
	})
}

func TestRunEnsureTable(t *testing.T) {
	logger := discardLogger()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		called := false
		err := RunEnsureTable(ctx, ensurerFunc(func(context.Context) error {
			called = true
			return nil
		}), logger, "charm-orders")

		require.NoError(t, err)
		require.True(t, called)
	})

	t.Run("failure", func(t *testing.T) {
		err := RunEnsureTable(ctx, ensurerFunc(func(context.Context) error {
			return errors.New("access denied")
		}), logger, "charm-orders")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to ensure dynamodb table")
	})
}
