// Command analyze-logo reports the color analysis of a logo as JSON and exits
// with a code describing its overall tone.
//
// Usage: analyze-logo <filepath> [palette_size]
// - palette_size: 1..32 number of dominant colors to report (default 5)
//
// Exit codes:
//
//	0 = neutral logo
//	1 = predominantly dark logo
//	2 = error (bad args, cannot open/decode image, etc.)
//	3 = predominantly light logo (wins when both tones are flagged)
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/pixel"
	"github.com/book-expert/logo-variants-service/internal/variants"
)

var (
	ErrInvalidArguments   = errors.New("invalid number of arguments")
	ErrInvalidPaletteSize = errors.New("palette size must be between 1 and 32")
)

// arguments holds the parsed and validated command-line arguments.
type arguments struct {
	filePath    string
	paletteSize int
}

// report is the JSON document printed on success.
type report struct {
	File                 string   `json:"file"`
	OutlineColor         string   `json:"outlineColor"`
	Palette              []string `json:"palette"`
	Width                int      `json:"width"`
	Height               int      `json:"height"`
	VisiblePixels        int      `json:"visiblePixels"`
	AvgLuminance         float64  `json:"avgLuminance"`
	DarkRatio            float64  `json:"darkRatio"`
	LightRatio           float64  `json:"lightRatio"`
	LuminanceStdDev      float64  `json:"luminanceStdDev"`
	IsPredominantlyDark  bool     `json:"isPredominantlyDark"`
	IsPredominantlyLight bool     `json:"isPredominantlyLight"`
}

// Exit codes used by this tool to communicate with calling scripts.
const (
	exitCodeNeutral = 0
	exitCodeDark    = 1
	exitCodeError   = 2
	exitCodeLight   = 3

	minArgCount        = 2
	maxArgCount        = 3
	defaultPaletteSize = 5
	maxPaletteSize     = 32
	maxPixels          = 4096 * 4096
)

func main() {
	args, err := parseAndValidateArguments(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Argument error: %v\n", err)
		os.Exit(exitCodeError)
	}

	result, err := analyzeFile(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Image analysis error: %v\n", err)
		os.Exit(exitCodeError)
	}

	if err := writeReport(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(exitCodeError)
	}

	os.Exit(exitCode(result))
}

// --- Argument Parsing ---

// parseAndValidateArguments processes the raw command-line arguments.
func parseAndValidateArguments(args []string) (arguments, error) {
	if len(args) < minArgCount || len(args) > maxArgCount {
		return arguments{}, fmt.Errorf(
			"expected 1 or 2 arguments, but got %d. Usage: <program> <filepath> [palette_size]: %w",
			len(args)-1,
			ErrInvalidArguments,
		)
	}

	paletteSize := defaultPaletteSize

	if len(args) == maxArgCount {
		parsed, err := parsePaletteSize(args[2])
		if err != nil {
			return arguments{}, err
		}

		paletteSize = parsed
	}

	return arguments{
		filePath:    args[1],
		paletteSize: paletteSize,
	}, nil
}

// parsePaletteSize parses and validates the palette size string.
func parsePaletteSize(sizeStr string) (int, error) {
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return 0, fmt.Errorf("invalid palette size '%s': %w", sizeStr, err)
	}

	if size < 1 || size > maxPaletteSize {
		return 0, fmt.Errorf("got %d: %w", size, ErrInvalidPaletteSize)
	}

	return size, nil
}

// --- Image Analysis ---

// analyzeFile decodes the logo and computes its analysis and palette.
func analyzeFile(args arguments) (report, error) {
	data, err := os.ReadFile(args.filePath)
	if err != nil {
		return report{}, fmt.Errorf("could not open file %s: %w", args.filePath, err)
	}

	buf, err := pixel.Decode(data, maxPixels)
	if err != nil {
		return report{}, fmt.Errorf("could not decode image file %s: %w", args.filePath, err)
	}

	result := analysis.Analyze(buf)

	palette := []string{}
	if result.VisiblePixels > 0 {
		palette = analysis.ExtractPalette(buf.ToNRGBA(), args.paletteSize, analysis.PaletteMethodDominantColor)
	}

	outline := variants.OutlineColor(result)

	return report{
		File:                 args.filePath,
		OutlineColor:         fmt.Sprintf("#%02x%02x%02x", outline.R, outline.G, outline.B),
		Palette:              palette,
		Width:                buf.Width,
		Height:               buf.Height,
		VisiblePixels:        result.VisiblePixels,
		AvgLuminance:         result.AvgLuminance,
		DarkRatio:            result.DarkRatio,
		LightRatio:           result.LightRatio,
		LuminanceStdDev:      result.LuminanceStdDev,
		IsPredominantlyDark:  result.IsPredominantlyDark,
		IsPredominantlyLight: result.IsPredominantlyLight,
	}, nil
}

func writeReport(w io.Writer, r report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("could not encode report: %w", err)
	}

	return nil
}

// exitCode checks light before dark, matching the outline color choice.
func exitCode(r report) int {
	switch {
	case r.IsPredominantlyLight:
		return exitCodeLight
	case r.IsPredominantlyDark:
		return exitCodeDark
	default:
		return exitCodeNeutral
	}
}
