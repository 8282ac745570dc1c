package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/http/mocks"
)

func setupOrderHandler(t *testing.T) (*OrderHandler, *mocks.MockOrderUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := mocks.NewMockOrderUseCase(t)
	return NewOrderHandler(mockUseCase, testLogger()), mockUseCase
}

func TestOrderHandler_GetHandler(t *testing.T) {
	t.Run("Success_OmitsPrivateFields", func(t *testing.T) {
		handler, mockUseCase := setupOrderHandler(t)

		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		order := &domain.Order{
			Key: "cs_h1",
			Inputs: domain.CustomerInputs{
				Name:      "Ana",
				Birthdate: "1990-01-01",
				Goal:      "new job",
				Email:     "ana@example.com",
			},
			Status:        domain.StatusPaid,
			PaymentStatus: "paid",
			AmountCents:   100,
			Currency:      "usd",
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		mockUseCase.On("Get", mock.Anything, "cs_h1").Return(order, nil).Once()

		c, w := createTestContext(http.MethodGet, "/v1/orders/cs_h1", nil)
		c.Params = gin.Params{{Key: "key", Value: "cs_h1"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "ana@example.com")
		assert.NotContains(t, w.Body.String(), "1990-01-01")
		assert.NotContains(t, w.Body.String(), "new job")

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "cs_h1", response["sessionHandle"])
		assert.Equal(t, "PAID", response["status"])
		assert.Equal(t, "Ana", response["name"])
		assert.Equal(t, true, response["paid"])
		assert.Equal(t, false, response["fulfilled"])
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupOrderHandler(t)

		mockUseCase.On("Get", mock.Anything, "tok-missing").Return(nil, domain.ErrOrderNotFound).Once()

		c, w := createTestContext(http.MethodGet, "/v1/orders/tok-missing", nil)
		c.Params = gin.Params{{Key: "key", Value: "tok-missing"}}

		handler.GetHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeBody(w)["error"])
	})
}
