package domain

// PaymentStatusPaid is the provider payment status of a completed payment.
const PaymentStatusPaid = "paid"

// EventCheckoutCompleted is the only actionable payment event type.
const EventCheckoutCompleted = "checkout.session.completed"

// Metadata keys attached to a checkout session.
const (
	MetadataName             = "name"
	MetadataBirthdate        = "birthdate"
	MetadataGoal             = "goal"
	MetadataEmail            = "email"
	MetadataCorrelationToken = "correlation_token"
)

// LineItem is the single product sold in a checkout session.
type LineItem struct {
	Name        string
	AmountCents int64
	Currency    string
	Quantity    int64
}

// SessionRequest describes a checkout session to create.
type SessionRequest struct {
	LineItem   LineItem
	SuccessURL string
	CancelURL  string
	Email      string
	Metadata   map[string]string
}

// Session is a checkout session as seen by the payment provider.
type Session struct {
	Handle        string
	URL           string
	PaymentStatus string
	AmountCents   int64
	Currency      string
	Metadata      map[string]string
}

// PaymentEvent is an authenticated webhook event.
type PaymentEvent struct {
	ID      string
	Type    string
	Session *Session // nil unless Type is EventCheckoutCompleted
}

// MetadataFromInputs encodes customer inputs and the correlation token as session metadata.
func MetadataFromInputs(inputs CustomerInputs, correlationToken string) map[string]string {
	metadata := map[string]string{
		MetadataName:      inputs.Name,
		MetadataBirthdate: inputs.Birthdate,
		MetadataGoal:      inputs.Goal,
		MetadataEmail:     inputs.Email,
	}
	if correlationToken != "" {
		metadata[MetadataCorrelationToken] = correlationToken
	}
	return metadata
}

// InputsFromMetadata decodes customer inputs carried in session metadata.
func InputsFromMetadata(metadata map[string]string) CustomerInputs {
	return CustomerInputs{
		Name:      metadata[MetadataName],
		Birthdate: metadata[MetadataBirthdate],
		Goal:      metadata[MetadataGoal],
		Email:     metadata[MetadataEmail],
	}
}
