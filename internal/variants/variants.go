package variants

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/lighten"
	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/outline"
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

// OutlineWidth is the dilation radius, in pixels, used by every variant.
const OutlineWidth = 2

// Variant IDs, in generation order.
const (
	IDOriginalOutline = "original-outline"
	IDBalanced        = "balanced"
	IDHighContrast    = "high-contrast"
)

// Variant is one finished, PNG-encoded logo rendition.
type Variant struct {
	ID          string
	Label       string
	Description string
	PNG         []byte
}

// recipe describes how a variant is derived from the trimmed source.
type recipe struct {
	lighten     *lighten.Params // nil keeps the original colors
	id          string
	label       string
	description string
	adaptive    bool // false always uses a white outline
}

func recipes() []recipe {
	return []recipe{
		{
			id:          IDOriginalOutline,
			label:       "Original + Outline",
			description: "Exact brand colors with a white outline for dark backgrounds.",
			lighten:     nil,
			adaptive:    false,
		},
		{
			id:          IDBalanced,
			label:       "Balanced",
			description: "Dark tones gently lightened with an outline matched to the logo.",
			lighten:     &lighten.Balanced,
			adaptive:    true,
		},
		{
			id:          IDHighContrast,
			label:       "High Contrast",
			description: "Dark tones strongly lightened for maximum visibility on dark UIs.",
			lighten:     &lighten.HighContrast,
			adaptive:    true,
		},
	}
}

// OutlineColor picks the adaptive outline color. Light logos get a dark outline,
// dark logos a white one, everything else neutral gray. The light check runs first,
// so it wins when both flags are set.
func OutlineColor(result analysis.ColorAnalysis) outline.Color {
	switch {
	case result.IsPredominantlyLight:
		return outline.DarkGray
	case result.IsPredominantlyDark:
		return outline.White
	default:
		return outline.NeutralGray
	}
}

// Generate derives the three variants from src, concurrently. src is only read.
// Either all three variants are returned, in order, or an error.
func Generate(
	ctx context.Context,
	src *pixel.Buffer,
	result analysis.ColorAnalysis,
) ([]Variant, error) {
	if err := src.Validate(); err != nil {
		return nil, logoerr.Processing("variant source", err)
	}

	steps := recipes()
	variants := make([]Variant, len(steps))
	errs := make([]error, len(steps))

	var waitGroup sync.WaitGroup

	for index, step := range steps {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			if ctx.Err() != nil {
				errs[index] = fmt.Errorf("variant %s: %w", step.id, ctx.Err())

				return
			}

			variants[index], errs[index] = step.render(src, result)
		}()
	}

	waitGroup.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return variants, nil
}

func (r recipe) render(src *pixel.Buffer, result analysis.ColorAnalysis) (Variant, error) {
	base := src
	if r.lighten != nil {
		base = lighten.Apply(src, *r.lighten)
	}

	color := outline.White
	if r.adaptive {
		color = OutlineColor(result)
	}

	ring := outline.Create(base, color, OutlineWidth)

	encoded, err := CompositePNG(base, ring)
	if err != nil {
		return Variant{}, fmt.Errorf("variant %s: %w", r.id, err)
	}

	return Variant{
		ID:          r.id,
		Label:       r.label,
		Description: r.description,
		PNG:         encoded,
	}, nil
}
