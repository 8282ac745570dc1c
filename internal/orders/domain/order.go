package domain

import (
	"time"
)

// CustomerInputs are the personalization fields captured for a charm.
type CustomerInputs struct {
	Name      string
	Birthdate string // YYYY-MM-DD
	Goal      string
	Email     string
}

// IsZero reports whether no field was captured.
func (c CustomerInputs) IsZero() bool {
	return c == CustomerInputs{}
}

// Order is the durable record of one checkout attempt.
type Order struct {
	Key                 string // Provider session handle
	LocalToken          string // Client correlation token, resolvable to Key
	Inputs              CustomerInputs
	InputsAuthoritative bool // Inputs came from a verified payment event
	Status              Status
	PaymentStatus       string // Last provider-reported value, advisory
	ArtifactRef         string // Artifact store key, set once
	AmountCents         int64
	Currency            string
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewOrder returns an empty pending record for key. It is the starting point
// of an upsert that finds no stored record.
func NewOrder(key string, now time.Time) *Order {
	return &Order{
		Key:       key,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OrderUpdate carries the partial fields of an upsert. Nil fields are left untouched.
type OrderUpdate struct {
	Status              *Status
	Inputs              *CustomerInputs
	InputsAuthoritative bool
	PaymentStatus       *string
	ArtifactRef         *string
	LocalToken          *string
	AmountCents         *int64
	Currency            *string
}

// Apply merges u into o and reports whether anything changed. UpdatedAt and
// Version move only on an effective change, so replaying the same update
// leaves the record untouched.
//
// Merge rules:
//   - status only moves forward, and FULFILLED requires an artifact reference
//   - authoritative inputs overwrite anything; optimistic inputs never overwrite authoritative ones
//   - artifactRef and localToken are set once
//   - paymentStatus, amount and currency are last write wins
func (o *Order) Apply(u OrderUpdate, now time.Time) bool {
	changed := false

	if u.Inputs != nil && (u.InputsAuthoritative || !o.InputsAuthoritative) {
		if o.Inputs != *u.Inputs {
			o.Inputs = *u.Inputs
			changed = true
		}
		if u.InputsAuthoritative && !o.InputsAuthoritative {
			o.InputsAuthoritative = true
			changed = true
		}
	}

	if u.ArtifactRef != nil && *u.ArtifactRef != "" && o.ArtifactRef == "" {
		o.ArtifactRef = *u.ArtifactRef
		changed = true
	}

	if u.LocalToken != nil && *u.LocalToken != "" && o.LocalToken == "" {
		o.LocalToken = *u.LocalToken
		changed = true
	}

	if u.PaymentStatus != nil && *u.PaymentStatus != o.PaymentStatus {
		o.PaymentStatus = *u.PaymentStatus
		changed = true
	}

	if u.AmountCents != nil && *u.AmountCents != o.AmountCents {
		o.AmountCents = *u.AmountCents
		changed = true
	}

	if u.Currency != nil && *u.Currency != o.Currency {
		o.Currency = *u.Currency
		changed = true
	}

	if u.Status != nil && o.Status.CanAdvanceTo(*u.Status) {
		if *u.Status != StatusFulfilled || o.ArtifactRef != "" {
			o.Status = *u.Status
			changed = true
		}
	}

	if changed {
		o.Version++
		o.UpdatedAt = now
	}
	return changed
}

// StatusPtr returns a pointer to s.
func StatusPtr(s Status) *Status {
	return &s
}
