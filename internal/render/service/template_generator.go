package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/allisson/charms/internal/orders/domain"
)

var (
	templateQuotes = []string{
		"Fortune favors the bold, %s.",
		"Luck is what happens when preparation meets opportunity, %s.",
		"Every step forward is a step toward %s.",
		"The stars line up for those who keep walking, %s.",
		"Small sparks light great fires, %s.",
	}
	templateEmojis = []string{
		"🍀✨🌟",
		"🌈🦋🍀",
		"🔮💫🌙",
		"🌻☀️🍀",
		"🐞🌟🎯",
	}
	templateMantras = []string{
		"I move toward %s with a calm heart and open hands.",
		"Each day brings me closer to %s.",
		"I welcome %s and the luck that comes with it.",
		"My path to %s is already unfolding.",
		"I am ready for %s.",
	}
)

// TemplateGenerator writes charm text from fixed templates without any
// network call. The choice depends only on the inputs, so the same customer
// always gets the same charm.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a new TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate builds a three line charm: quote, emoji combo and mantra.
func (g *TemplateGenerator) Generate(ctx context.Context, inputs domain.CustomerInputs) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(inputs.Name + "\x00" + inputs.Birthdate + "\x00" + inputs.Goal))
	seed := int(h.Sum32() % 1_000_000)

	name := strings.TrimSpace(inputs.Name)
	goal := strings.TrimSpace(inputs.Goal)
	if goal == "" {
		goal = "good fortune"
	}

	lines := []string{
		fmt.Sprintf(templateQuotes[seed%len(templateQuotes)], name),
		templateEmojis[(seed/7)%len(templateEmojis)],
		fmt.Sprintf(templateMantras[(seed/13)%len(templateMantras)], goal),
	}
	return strings.Join(lines, "\n"), nil
}
