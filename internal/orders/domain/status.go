// Package domain defines the order fulfillment domain model: the order record, its
// status state machine, the dual identifier scheme and the payment verification result.
//
// Every order store backend merges partial updates through Order.Apply, so the
// status monotonicity and the inputs precedence rules live in one place.
package domain

import (
	"fmt"
)

// Status is the fulfillment status of an order.
type Status string

const (
	// StatusPending is set when a checkout session has been created.
	StatusPending Status = "PENDING"
	// StatusFailed is set when the payment provider reports the payment as not completed.
	StatusFailed Status = "FAILED"
	// StatusPaid is set when a verified payment event has been processed.
	StatusPaid Status = "PAID"
	// StatusFulfilled is set once the artifact is durably stored.
	StatusFulfilled Status = "FULFILLED"
)

// Rank orders statuses along the forward-only progression.
// A received payment outranks a failure mark.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusFailed:
		return 1
	case StatusPaid:
		return 2
	case StatusFulfilled:
		return 3
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.Rank() > s.Rank()
}

// IsPaid reports whether the order has a confirmed payment.
func (s Status) IsPaid() bool {
	return s.Rank() >= StatusPaid.Rank()
}

// Validate checks if the status is known.
func (s Status) Validate() error {
	if s.Rank() < 0 {
		return fmt.Errorf("invalid status %q", string(s))
	}
	return nil
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if err := s.Validate(); err != nil {
		return "", err
	}
	return s, nil
}
