package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/charms/internal/orders/domain"
	customValidation "github.com/allisson/charms/internal/validation"
)

// checkoutUseCase implements CheckoutUseCase.
type checkoutUseCase struct {
	orderRepo OrderRepository
	gateway   PaymentGateway
	config    CheckoutConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckoutUseCase creates a new CheckoutUseCase.
func NewCheckoutUseCase(
	orderRepo OrderRepository,
	gateway PaymentGateway,
	config CheckoutConfig,
	logger *slog.Logger,
) CheckoutUseCase {
	return &checkoutUseCase{
		orderRepo: orderRepo,
		gateway:   gateway,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Initiate validates the input, creates a checkout session carrying the inputs
// as metadata and records a PENDING order under the session handle.
func (c *checkoutUseCase) Initiate(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	input = normalizeCheckoutInput(input)
	if err := c.validate(input); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	token := input.CorrelationToken
	if token == "" {
		token = uuid.Must(uuid.NewV7()).String()
	}

	amount := c.config.PriceCents
	if input.AmountCents != nil {
		amount = *input.AmountCents
	}

	inputs := domain.CustomerInputs{
		Name:      input.Name,
		Birthdate: input.Birthdate,
		Goal:      input.Goal,
		Email:     input.Email,
	}

	gatewayCtx, cancel := withTimeout(ctx, c.config.GatewayTimeout)
	defer cancel()

	session, err := c.gateway.CreateSession(gatewayCtx, domain.SessionRequest{
		LineItem: domain.LineItem{
			Name:        c.config.ProductName,
			AmountCents: amount,
			Currency:    c.config.Currency,
			Quantity:    1,
		},
		SuccessURL: c.successURL(token),
		CancelURL:  c.config.PublicBaseURL + "/?canceled=true",
		Email:      inputs.Email,
		Metadata:   domain.MetadataFromInputs(inputs, token),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentSession, err)
	}

	c.precapture(ctx, session.Handle, inputs, token, amount)

	return &CheckoutResult{
		SessionHandle:    session.Handle,
		CheckoutURL:      session.URL,
		CorrelationToken: token,
	}, nil
}

// precapture writes the optimistic PENDING record. The session metadata already
// carries everything the webhook needs, so a failure here is only logged.
func (c *checkoutUseCase) precapture(
	ctx context.Context,
	handle string,
	inputs domain.CustomerInputs,
	token string,
	amount int64,
) {
	storeCtx, cancel := withTimeout(ctx, c.config.StoreTimeout)
	defer cancel()

	_, err := c.orderRepo.Upsert(storeCtx, handle, domain.OrderUpdate{
		Status:      domain.StatusPtr(domain.StatusPending),
		Inputs:      &inputs,
		LocalToken:  stringPtr(token),
		AmountCents: int64Ptr(amount),
		Currency:    stringPtr(c.config.Currency),
	})
	if err != nil {
		c.logger.Warn("failed to pre-capture pending order",
			slog.String("session_handle", handle),
			slog.Any("error", err),
		)
	}
}

func (c *checkoutUseCase) successURL(token string) string {
	// {CHECKOUT_SESSION_ID} is substituted by the payment provider on redirect.
	return fmt.Sprintf(
		"%s/?success=true&session={CHECKOUT_SESSION_ID}&token=%s",
		c.config.PublicBaseURL,
		url.QueryEscape(token),
	)
}

func (c *checkoutUseCase) validate(input CheckoutInput) error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 100),
		),
		validation.Field(&input.Birthdate,
			validation.Required,
			customValidation.PastDate{Now: c.now},
		),
		validation.Field(&input.Goal,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 200),
		),
		validation.Field(&input.Email,
			validation.Required,
			customValidation.Email,
			validation.Length(3, 254),
		),
		validation.Field(&input.AmountCents,
			validation.By(c.amountInRange),
		),
		validation.Field(&input.CorrelationToken,
			customValidation.CorrelationToken,
		),
	)
}

// amountInRange rejects amounts below the price or above the configured cap.
// validation.Min treats zero as empty, so the range check is explicit.
func (c *checkoutUseCase) amountInRange(value interface{}) error {
	amount, ok := value.(*int64)
	if !ok || amount == nil {
		return nil
	}
	if *amount < c.config.PriceCents {
		return validation.NewError(
			"validation_amount_min",
			fmt.Sprintf("must be at least %d", c.config.PriceCents),
		)
	}
	if c.config.MaxPriceCents > 0 && *amount > c.config.MaxPriceCents {
		return validation.NewError(
			"validation_amount_max",
			fmt.Sprintf("must be no greater than %d", c.config.MaxPriceCents),
		)
	}
	return nil
}

func normalizeCheckoutInput(input CheckoutInput) CheckoutInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Birthdate = strings.TrimSpace(input.Birthdate)
	input.Goal = strings.TrimSpace(input.Goal)
	input.Email = strings.TrimSpace(input.Email)
	input.CorrelationToken = strings.TrimSpace(input.CorrelationToken)
	return input
}
