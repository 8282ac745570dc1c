// Package http provides HTTP handlers for the charm order pipeline: checkout
// initiation, payment webhooks, fulfillment and order status polling.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/charms/internal/httputil"
	"github.com/allisson/charms/internal/orders/http/dto"
	"github.com/allisson/charms/internal/orders/usecase"
	customValidation "github.com/allisson/charms/internal/validation"
)

// CheckoutHandler handles checkout initiation requests.
type CheckoutHandler struct {
	checkoutUseCase usecase.CheckoutUseCase
	logger          *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkoutUseCase usecase.CheckoutUseCase, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUseCase: checkoutUseCase,
		logger:          logger,
	}
}

// CreateHandler starts a paid order and returns the provider checkout URL.
// POST /v1/checkout
func (h *CheckoutHandler) CreateHandler(c *gin.Context) {
	var req dto.CheckoutRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.checkoutUseCase.Initiate(c.Request.Context(), req.ToCheckoutInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCheckoutResultToResponse(result))
}
