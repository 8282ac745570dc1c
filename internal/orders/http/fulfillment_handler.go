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

// FulfillmentHandler delivers charms for paid orders.
type FulfillmentHandler struct {
	fulfillmentUseCase usecase.FulfillmentUseCase
	logger             *slog.Logger
}

// NewFulfillmentHandler creates a new fulfillment handler.
func NewFulfillmentHandler(fulfillmentUseCase usecase.FulfillmentUseCase, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		fulfillmentUseCase: fulfillmentUseCase,
		logger:             logger,
	}
}

// FulfillHandler renders the charm and returns its download link.
// POST /v1/fulfillments
// Repeated calls render again and overwrite the same artifact object.
func (h *FulfillmentHandler) FulfillHandler(c *gin.Context) {
	var req dto.FulfillmentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	result, err := h.fulfillmentUseCase.Fulfill(c.Request.Context(), req.Identifier())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapFulfillmentResultToResponse(result))
}
