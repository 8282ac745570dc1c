// Package service implements the payment gateway adapter on top of Stripe Checkout.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"

	apperrors "github.com/allisson/charms/internal/errors"
	"github.com/allisson/charms/internal/orders/domain"
)

// SessionHandlePrefix prefixes every Stripe checkout session id.
const SessionHandlePrefix = "cs_"

// StripeConfig holds the Stripe adapter settings.
type StripeConfig struct {
	SecretKey          string
	WebhookSecret      string
	WebhookTolerance   time.Duration
	PaymentMethodTypes []string
	// BackendURL overrides the API origin (stripe-mock, tests).
	BackendURL        string
	MaxNetworkRetries int64
}

// StripeGateway creates and inspects Stripe checkout sessions and
// authenticates Stripe webhook deliveries.
type StripeGateway struct {
	api    *client.API
	config StripeConfig
	logger *slog.Logger
}

// NewStripeGateway creates a new StripeGateway with its own API client, leaving
// the package level stripe.Key untouched.
func NewStripeGateway(config StripeConfig, logger *slog.Logger) *StripeGateway {
	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(config.MaxNetworkRetries),
	}
	if config.BackendURL != "" {
		backendConfig.URL = stripe.String(config.BackendURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	return &StripeGateway{
		api: client.New(config.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		config: config,
		logger: logger,
	}
}

// CreateSession creates a one line item payment mode checkout session.
func (s *StripeGateway) CreateSession(
	ctx context.Context,
	req domain.SessionRequest,
) (*domain.Session, error) {
	quantity := req.LineItem.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.LineItem.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.LineItem.Name),
					},
					UnitAmount: stripe.Int64(req.LineItem.AmountCents),
				},
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	if len(s.config.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(s.config.PaymentMethodTypes)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create stripe checkout session")
	}

	s.logger.Debug("stripe checkout session created", slog.String("session_handle", session.ID))
	return toSession(session), nil
}

// RetrieveSession fetches the current state of a checkout session.
func (s *StripeGateway) RetrieveSession(ctx context.Context, handle string) (*domain.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.Get(handle, params)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to retrieve stripe checkout session")
	}
	return toSession(session), nil
}

// VerifyEvent authenticates payload against the Stripe-Signature header and
// decodes the checkout session carried by checkout.session.completed events.
func (s *StripeGateway) VerifyEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature == "" {
		return nil, domain.ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.config.WebhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                s.config.WebhookTolerance,
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, apperrors.Wrap(domain.ErrInvalidSignature, err.Error())
	}

	paymentEvent := &domain.PaymentEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if paymentEvent.Type != domain.EventCheckoutCompleted {
		return paymentEvent, nil
	}

	if event.Data == nil {
		return nil, apperrors.Wrap(domain.ErrInvalidSignature, "event without data")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperrors.Wrap(domain.ErrInvalidSignature, "malformed checkout session")
	}
	paymentEvent.Session = toSession(&session)
	return paymentEvent, nil
}

// IsSessionHandle reports whether raw looks like a checkout session id.
func (s *StripeGateway) IsSessionHandle(raw string) bool {
	return strings.HasPrefix(raw, SessionHandlePrefix)
}

func toSession(session *stripe.CheckoutSession) *domain.Session {
	metadata := make(map[string]string, len(session.Metadata))
	for key, value := range session.Metadata {
		metadata[key] = value
	}
	return &domain.Session{
		Handle:        session.ID,
		URL:           session.URL,
		PaymentStatus: string(session.PaymentStatus),
		AmountCents:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      metadata,
	}
}
