// Package service renders luck charms: a generator writes the charm text and
// the image renderer draws its first line onto a fixed size PNG card.
package service

import (
	"context"
	"fmt"

	"github.com/allisson/charms/internal/orders/domain"
)

// TextGenerator writes charm text for customer inputs.
type TextGenerator interface {
	Generate(ctx context.Context, inputs domain.CustomerInputs) (string, error)
}

// BuildPrompt returns the chat prompt asking for a charm.
func BuildPrompt(inputs domain.CustomerInputs) string {
	return fmt.Sprintf(
		"Create a fun luck charm for %s, born %s, goal %s. "+
			"Include a short quote, emoji combo, and one-sentence mantra. "+
			"Put the quote on the first line.",
		inputs.Name,
		inputs.Birthdate,
		inputs.Goal,
	)
}
