package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/orders/http/mocks"
	"github.com/allisson/charms/internal/orders/usecase"
)

func TestRunFulfillPending(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	t.Run("all-fulfilled", func(t *testing.T) {
		uc := mocks.NewMockFulfillmentUseCase(t)
		uc.On("FulfillPending", ctx, 50, 4).Return(&usecase.BatchResult{
			Attempted: 2,
			Fulfilled: []string{"cs_test_a", "cs_test_b"},
			Failed:    map[string]error{},
		}, nil).Once()

		var out bytes.Buffer
		err := RunFulfillPending(ctx, uc, logger, &out, 50, 4, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Attempted: 2")
		require.Contains(t, out.String(), "Fulfilled: 2")
		require.Contains(t, out.String(), "Failed: 0")
	})

	t.Run("partial-failure", func(t *testing.T) {
		uc := mocks.NewMockFulfillmentUseCase(t)
		uc.On("FulfillPending", ctx, 10, 2).Return(&usecase.BatchResult{
			Attempted: 3,
			Fulfilled: []string{"cs_test_a"},
			Failed: map[string]error{
				"cs_test_c": errors.New("render timeout"),
				"cs_test_b": errors.New("store unavailable"),
			},
		}, nil).Once()

		var out bytes.Buffer
		err := RunFulfillPending(ctx, uc, logger, &out, 10, 2, "json")

		require.Error(t, err)
		require.Contains(t, err.Error(), "2 of 3 orders failed")

		var decoded struct {
			Attempted int               `json:"attempted"`
			Fulfilled []string          `json:"fulfilled"`
			Failed    map[string]string `json:"failed"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Equal(t, 3, decoded.Attempted)
		require.Equal(t, []string{"cs_test_a"}, decoded.Fulfilled)
		require.Equal(t, "render timeout", decoded.Failed["cs_test_c"])
	})

	t.Run("failed-keys-sorted-in-text", func(t *testing.T) {
		uc := mocks.NewMockFulfillmentUseCase(t)
		uc.On("FulfillPending", ctx, 10, 1).Return(&usecase.BatchResult{
			Attempted: 2,
			Failed: map[string]error{
				"cs_test_z": errors.New("boom"),
				"cs_test_a": errors.New("boom"),
			},
		}, nil).Once()

		var out bytes.Buffer
		_ = RunFulfillPending(ctx, uc, logger, &out, 10, 1, "text")

		text := out.String()
		require.Less(t, bytes.Index([]byte(text), []byte("cs_test_a")), bytes.Index([]byte(text), []byte("cs_test_z")))
	})

	t.Run("invalid-arguments", func(t *testing.T) {
		tests := []struct {
			name        string
			limit       int
			concurrency int
			format      string
			wantErr     string
		}{
			{"zero-limit", 0, 1, "text", "invalid limit"},
			{"zero-concurrency", 10, 0, "text", "invalid concurrency"},
			{"bad-format", 10, 1, "xml", "invalid format"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				uc := mocks.NewMockFulfillmentUseCase(t)
				err := RunFulfillPending(ctx, uc, logger, &bytes.Buffer{}, tt.limit, tt.concurrency, tt.format)
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
			})
		}
	})

	t.Run("store-failure", func(t *testing.T) {
		uc := mocks.NewMockFulfillmentUseCase(t)
		uc.On("FulfillPending", ctx, 10, 1).Return(nil, errors.New("table missing")).Once()

		err := RunFulfillPending(ctx, uc, logger, &bytes.Buffer{}, 10, 1, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to fulfill pending orders")
	})
}
