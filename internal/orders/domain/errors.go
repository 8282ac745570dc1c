package domain

import (
	"github.com/allisson/charms/internal/errors"
)

var (
	// ErrValidation indicates the checkout input failed validation.
	ErrValidation = errors.Wrap(errors.ErrInvalidInput, "invalid checkout input")

	// ErrInvalidSignature indicates a webhook payload failed the authenticity check.
	ErrInvalidSignature = errors.Wrap(errors.ErrInvalidInput, "invalid webhook signature")

	// ErrPaymentSession indicates the payment provider could not create a checkout session.
	ErrPaymentSession = errors.Wrap(errors.ErrUnavailable, "failed to create payment session")

	// ErrPaymentNotCompleted indicates the payment for an order is not completed.
	ErrPaymentNotCompleted = errors.Wrap(errors.ErrPaymentIncomplete, "payment not completed")

	// ErrOrderNotFound indicates no order record exists for the identifier.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrFulfillment indicates rendering or storing the artifact failed. Retrying is safe.
	ErrFulfillment = errors.Wrap(errors.ErrUnavailable, "failed to fulfill order")

	// ErrMissingIdentifier indicates no session handle or token was supplied.
	ErrMissingIdentifier = errors.Wrap(errors.ErrInvalidInput, "missing order identifier")
)
