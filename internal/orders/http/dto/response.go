package dto

import (
	"time"

	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/usecase"
)

// CheckoutResponse tells the browser where to send the customer.
type CheckoutResponse struct {
	SessionHandle string `json:"sessionHandle"`
	// SessionID repeats SessionHandle for clients of the legacy route.
	SessionID        string `json:"sessionId"`
	CheckoutURL      string `json:"checkoutUrl"`
	CorrelationToken string `json:"correlationToken"`
}

// MapCheckoutResultToResponse converts a checkout result to an API response.
func MapCheckoutResultToResponse(result *usecase.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		SessionHandle:    result.SessionHandle,
		SessionID:        result.SessionHandle,
		CheckoutURL:      result.CheckoutURL,
		CorrelationToken: result.CorrelationToken,
	}
}

// WebhookResponse acknowledges a webhook delivery.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// FulfillmentResponse carries the download link and the charm text.
type FulfillmentResponse struct {
	Success      bool   `json:"success"`
	DownloadURL  string `json:"downloadUrl"`
	ArtifactText string `json:"artifactText"`
	// CharmText repeats ArtifactText for clients of the legacy route.
	CharmText string `json:"charmText"`
}

// MapFulfillmentResultToResponse converts a fulfillment result to an API response.
func MapFulfillmentResultToResponse(result *usecase.FulfillmentResult) FulfillmentResponse {
	return FulfillmentResponse{
		Success:      true,
		DownloadURL:  result.DownloadURL,
		ArtifactText: result.ArtifactText,
		CharmText:    result.ArtifactText,
	}
}

// OrderResponse is the polling view of an order. It omits birthdate, goal and email.
type OrderResponse struct {
	SessionHandle string    `json:"sessionHandle"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	Name          string    `json:"name,omitempty"`
	Paid          bool      `json:"paid"`
	Fulfilled     bool      `json:"fulfilled"`
	AmountCents   int64     `json:"amountCents"`
	Currency      string    `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MapOrderToResponse converts a domain order to an API response.
func MapOrderToResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		SessionHandle: order.Key,
		Status:        order.Status.String(),
		PaymentStatus: order.PaymentStatus,
		Name:          order.Inputs.Name,
		Paid:          order.Status.IsPaid(),
		Fulfilled:     order.Status == domain.StatusFulfilled,
		AmountCents:   order.AmountCents,
		Currency:      order.Currency,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
