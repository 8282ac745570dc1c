package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/charms/internal/httputil"
	"github.com/allisson/charms/internal/orders/http/dto"
	"github.com/allisson/charms/internal/orders/usecase"
)

// OrderHandler serves order status for polling clients.
type OrderHandler struct {
	orderUseCase usecase.OrderUseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderUseCase usecase.OrderUseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

// GetHandler returns the status view of an order.
// GET /v1/orders/:key - key is a session handle or a legacy correlation token.
func (h *OrderHandler) GetHandler(c *gin.Context) {
	order, err := h.orderUseCase.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToResponse(order))
}
