package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/charms/internal/httputil"
	"github.com/allisson/charms/internal/orders/http/dto"
	"github.com/allisson/charms/internal/orders/usecase"
)

const (
	// MaxWebhookBodyBytes bounds the webhook payload read into memory.
	MaxWebhookBodyBytes = 65536
	// SignatureHeader carries the provider signature of a webhook payload.
	SignatureHeader = "Stripe-Signature"
)

// WebhookHandler receives payment provider events.
type WebhookHandler struct {
	paymentEventUseCase usecase.PaymentEventUseCase
	logger              *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(paymentEventUseCase usecase.PaymentEventUseCase, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		paymentEventUseCase: paymentEventUseCase,
		logger:              logger,
	}
}

// StripeHandler authenticates and processes a webhook delivery.
// POST /v1/webhooks/stripe
// Every authentic delivery is acknowledged with 200, even when it is ignored
// or persisting it failed, so the provider does not retry it forever.
func (h *WebhookHandler) StripeHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	outcome, err := h.paymentEventUseCase.Process(
		c.Request.Context(),
		payload,
		c.GetHeader(SignatureHeader),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("webhook processed", slog.String("outcome", string(outcome)))
	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
