package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/keeper"
)

type sealerFunc func(ctx context.Context, plaintext string) (string, error)

func (f sealerFunc) Seal(ctx context.Context, plaintext string) (string, error) {
	return f(ctx, plaintext)
}

func TestRunSealSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trip-with-keeper", func(t *testing.T) {
		k, err := keeper.Open(ctx, "base64key://")
		require.NoError(t, err)
		t.Cleanup(func() { _ = k.Close() })

		var out bytes.Buffer
		err = RunSealSecret(ctx, k, IOTuple{Reader: strings.NewReader(""), Writer: &out}, "sk_test_123")
		require.NoError(t, err)

		sealed := strings.TrimSpace(out.String())
		require.True(t, keeper.IsSealed(sealed))

		plain, err := k.Unseal(ctx, sealed)
		require.NoError(t, err)
		require.Equal(t, "sk_test_123", plain)
	})

	t.Run("reads-from-stdin", func(t *testing.T) {
		var got string
		sealer := sealerFunc(func(_ context.Context, plaintext string) (string, error) {
			got = plaintext
			return "sealed:abc", nil
		})

		var out bytes.Buffer
		err := RunSealSecret(ctx, sealer, IOTuple{Reader: strings.NewReader("whsec_456\n"), Writer: &out}, "")

		require.NoError(t, err)
		require.Equal(t, "whsec_456", got)
		require.Equal(t, "sealed:abc\n", out.String())
	})

	t.Run("empty-value", func(t *testing.T) {
		sealer := sealerFunc(func(context.Context, string) (string, error) {
			t.Fatal("sealer must not be called")
			return "", nil
		})

		err := RunSealSecret(ctx, sealer, IOTuple{Reader: strings.NewReader("\n"), Writer: &bytes.Buffer{}}, "")

		require.Error(t, err)
		require.Contains(t, err.Error(), "secret value is required")
	})

	t.Run("keeper-not-configured", func(t *testing.T) {
		k, err := keeper.Open(ctx, "")
		require.NoError(t, err)

		err = RunSealSecret(ctx, k, IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}}, "value")

		require.ErrorIs(t, err, keeper.ErrNoKeeper)
	})

	t.Run("seal-error", func(t *testing.T) {
		sealer := sealerFunc(func(context.Context, string) (string, error) {
			return "", errors.New("kms denied")
		})

		err := RunSealSecret(ctx, sealer, IOTuple{Reader: strings.NewReader(""), Writer: &bytes.Buffer{}}, "value")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to seal secret")
	})
}
