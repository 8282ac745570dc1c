// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/charms/internal/orders/usecase"
)

// CheckoutRequest contains the customer inputs of a checkout. Field rules are
// enforced by the checkout use case; Validate only checks request shape.
type CheckoutRequest struct {
	Name             string `json:"name"`
	Birthdate        string `json:"birthdate"`
	Goal             string `json:"goal"`
	Email            string `json:"email"`
	Amount           *int64 `json:"amount,omitempty"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	// SessionID is the correlation token under its legacy name.
	SessionID string `json:"sessionId,omitempty"`
}

// Validate rejects requests carrying two different correlation tokens.
func (r *CheckoutRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SessionID,
			validation.When(
				r.CorrelationToken != "" && r.SessionID != "",
				validation.In(r.CorrelationToken).Error("must match correlationToken"),
			),
		),
	)
}

// ToCheckoutInput converts the request to use case input.
func (r *CheckoutRequest) ToCheckoutInput() usecase.CheckoutInput {
	token := r.CorrelationToken
	if token == "" {
		token = r.SessionID
	}
	return usecase.CheckoutInput{
		Name:             r.Name,
		Birthdate:        r.Birthdate,
		Goal:             r.Goal,
		Email:            r.Email,
		AmountCents:      r.Amount,
		CorrelationToken: token,
	}
}

// FulfillmentRequest identifies the order to fulfill. PaymentID is preferred,
// then SessionHandle, then the legacy SessionID.
type FulfillmentRequest struct {
	PaymentID     string `json:"paymentId,omitempty"`
	SessionHandle string `json:"sessionHandle,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

// Identifier returns the preferred non-empty identifier.
func (r *FulfillmentRequest) Identifier() string {
	for _, id := range []string{r.PaymentID, r.SessionHandle, r.SessionID} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// Validate checks that at least one identifier was supplied.
func (r *FulfillmentRequest) Validate() error {
	return validation.Errors{
		"paymentId": validation.Validate(r.Identifier(),
			validation.Required.Error("paymentId, sessionHandle or sessionId is required"),
		),
	}.Filter()
}
