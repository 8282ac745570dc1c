package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/allisson/charms/internal/orders/domain"
)

// Renderer turns customer inputs into a charm artifact.
type Renderer struct {
	generator TextGenerator
}

// NewRenderer creates a new Renderer backed by generator.
func NewRenderer(generator TextGenerator) *Renderer {
	return &Renderer{generator: generator}
}

// Render generates the charm text and draws the PNG card.
func (r *Renderer) Render(ctx context.Context, inputs domain.CustomerInputs) (*domain.Artifact, error) {
	text, err := r.generator.Generate(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate charm text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("failed to generate charm text: empty text")
	}

	image, err := RenderCard(text)
	if err != nil {
		return nil, fmt.Errorf("failed to render charm image: %w", err)
	}

	return &domain.Artifact{
		Text:        text,
		Image:       image,
		ContentType: domain.ArtifactContentType,
	}, nil
}
