// Package pipeline runs one logo through background removal, trimming,
// analysis and variant generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/bgremoval"
	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/pixel"
	"github.com/book-expert/logo-variants-service/internal/variants"
)

// ErrRemoverRequired is returned when a Service is built without a Remover.
var ErrRemoverRequired = fmt.Errorf("%w: background remover is required", logoerr.ErrConfiguration)

const (
	defaultMaxPixels   = 4096 * 4096
	defaultPaletteSize = 5
)

// Options configures a Service.
type Options struct {
	Remover       bgremoval.Remover
	MaxPixels     int
	PaletteSize   int
	PaletteMethod analysis.PaletteMethod
}

// Result is the outcome of processing one logo.
type Result struct {
	Palette  []string
	Variants []variants.Variant
	Analysis analysis.ColorAnalysis
}

// Service processes logos. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	remover bgremoval.Remover
	log     *logger.Logger
	config  Options
}

// NewService creates a Service, filling zero-value options with defaults.
func NewService(opts *Options, log *logger.Logger) (*Service, error) {
	if opts.Remover == nil {
		return nil, ErrRemoverRequired
	}

	applyDefaultOptions(opts)

	return &Service{
		remover: opts.Remover,
		log:     log,
		config:  *opts,
	}, nil
}

func applyDefaultOptions(opts *Options) {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = defaultMaxPixels
	}

	if opts.PaletteSize <= 0 {
		opts.PaletteSize = defaultPaletteSize
	}
}

// Process removes the background of image, trims it, analyzes it and renders
// the three variants. No partial result is returned on failure.
func (s *Service) Process(ctx context.Context, requestID string, image []byte) (*Result, error) {
	started := time.Now()

	if len(image) == 0 {
		return nil, logoerr.InvalidImage("no image data", nil)
	}

	removed, err := s.remover.RemoveBackground(ctx, image)
	if err != nil {
		s.logFailure(requestID, "background removal", err)

		return nil, fmt.Errorf("background removal: %w", err)
	}

	decoded, err := pixel.Decode(removed, s.config.MaxPixels)
	if err != nil {
		s.logFailure(requestID, "decode", err)

		return nil, err
	}

	trimmed, err := pixel.Trim(decoded)
	if err != nil {
		s.logFailure(requestID, "trim", err)

		return nil, logoerr.InvalidImage("trim", err)
	}

	colors := analysis.Analyze(trimmed)

	var palette []string
	if colors.VisiblePixels > 0 {
		palette = analysis.ExtractPalette(trimmed.ToNRGBA(), s.config.PaletteSize, s.config.PaletteMethod)
	}

	s.log.Info(
		"Request [%s]: %dx%d logo, luminance %.2f (dark=%t, light=%t)",
		requestID,
		trimmed.Width,
		trimmed.Height,
		colors.AvgLuminance,
		colors.IsPredominantlyDark,
		colors.IsPredominantlyLight,
	)

	generated, err := variants.Generate(ctx, trimmed, colors)
	if err != nil {
		s.logFailure(requestID, "variant generation", err)

		return nil, err
	}

	s.log.Success("Request [%s]: generated %d variants in %s", requestID, len(generated), time.Since(started))

	return &Result{
		Palette:  palette,
		Variants: generated,
		Analysis: colors,
	}, nil
}

func (s *Service) logFailure(requestID, stage string, err error) {
	var upstream *logoerr.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode != 0 {
		s.log.Error("Request [%s]: %s failed with status %d: %s", requestID, stage, upstream.StatusCode, upstream.Body)

		return
	}

	s.log.Error("Request [%s]: %s failed: %v", requestID, stage, err)
}
