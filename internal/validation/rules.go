// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/charms/internal/errors"
)

// DateLayout is the calendar date format accepted for birthdates.
const DateLayout = "2006-01-02"

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// tokenRegex matches client supplied correlation tokens
	tokenRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,128}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// CorrelationToken validates the shape of a client generated correlation token.
var CorrelationToken = validation.NewStringRuleWithError(
	func(s string) bool {
		return tokenRegex.MatchString(s)
	},
	validation.NewError(
		"validation_correlation_token",
		"must be 8 to 128 letters, digits, dashes or underscores",
	),
)

// PastDate validates a YYYY-MM-DD date that is not after the day of now().
type PastDate struct {
	Now func() time.Time
}

// Validate implements validation.Rule.
func (r PastDate) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_date_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}

	date, err := time.Parse(DateLayout, s)
	if err != nil {
		return validation.NewError("validation_date_format", "must be a date in YYYY-MM-DD format")
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	today := now().UTC().Truncate(24 * time.Hour)
	if date.After(today) {
		return validation.NewError("validation_date_future", "must not be in the future")
	}
	return nil
}
