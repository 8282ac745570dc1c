package domain

// VerificationOutcome is the tag of a PaymentVerification.
type VerificationOutcome int

const (
	// VerifiedPaid means the provider confirmed the payment.
	VerifiedPaid VerificationOutcome = iota + 1
	// VerifiedUnpaid means the provider explicitly reported the payment as not completed.
	VerifiedUnpaid
	// VerificationUnavailable means the provider could not be asked; the order
	// record becomes the source of truth.
	VerificationUnavailable
)

func (o VerificationOutcome) String() string {
	switch o {
	case VerifiedPaid:
		return "paid"
	case VerifiedUnpaid:
		return "unpaid"
	case VerificationUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// PaymentVerification is the result of re-checking a session with the provider.
type PaymentVerification struct {
	Outcome       VerificationOutcome
	PaymentStatus string
	Err           error // set when Outcome is VerificationUnavailable
}

// Paid builds a VerifiedPaid result.
func Paid(paymentStatus string) PaymentVerification {
	return PaymentVerification{Outcome: VerifiedPaid, PaymentStatus: paymentStatus}
}

// Unpaid builds a VerifiedUnpaid result.
func Unpaid(paymentStatus string) PaymentVerification {
	return PaymentVerification{Outcome: VerifiedUnpaid, PaymentStatus: paymentStatus}
}

// Unavailable builds a VerificationUnavailable result.
func Unavailable(err error) PaymentVerification {
	return PaymentVerification{Outcome: VerificationUnavailable, Err: err}
}
