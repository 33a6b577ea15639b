// Package lighten raises the perceptual lightness of dark pixels so they remain
// visible against a dark UI background.
package lighten

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

const (
	// DarkReferenceLuminance is the luminance of the reference dark background.
	DarkReferenceLuminance = 0.1

	contrastOffset = 0.05
	// Pixels at or above this luminance are never adjusted.
	maxAdjustableLuminance = 0.5
	// Lightness (CIE L*, 0-100) is never raised beyond this cap.
	maxLightness = 85.0

	lightnessScale = 100.0
	maxChannel     = 255.0
)

// Params configures a lightening pass.
type Params struct {
	MaxLighten  float64
	MinContrast float64
}

var (
	// Balanced is the moderate pass used by the "balanced" variant.
	Balanced = Params{MaxLighten: 20, MinContrast: 3.0}
	// HighContrast is the strong pass used by the "high-contrast" variant.
	HighContrast = Params{MaxLighten: 35, MinContrast: 4.5}
)

// ContrastWithDark returns the WCAG contrast ratio between a luminance and the
// dark reference background.
func ContrastWithDark(luminance float64) float64 {
	return (max(luminance, DarkReferenceLuminance) + contrastOffset) /
		(min(luminance, DarkReferenceLuminance) + contrastOffset)
}

// Apply returns a copy of buf in which every visible pixel whose contrast against
// the dark reference is below p.MinContrast, and whose luminance is below 0.5, has
// its LCh lightness raised by p.MaxLighten (capped at 85). Pixels with alpha < 128
// are copied through unchanged; alpha is never modified.
func Apply(buf *pixel.Buffer, p Params) *pixel.Buffer {
	out := buf.Clone()

	for i := 0; i+3 < len(out.Data); i += pixel.Channels {
		if out.Data[i+3] < pixel.VisibleAlpha {
			continue
		}

		r, g, b := out.Data[i], out.Data[i+1], out.Data[i+2]

		lum := analysis.Luminance(r, g, b)
		if ContrastWithDark(lum) >= p.MinContrast || lum >= maxAdjustableLuminance {
			continue
		}

		out.Data[i], out.Data[i+1], out.Data[i+2] = lightenColor(r, g, b, p.MaxLighten)
	}

	return out
}

// lightenColor raises the CIE LCh(ab) lightness of an sRGB color.
func lightenColor(r, g, b uint8, amount float64) (uint8, uint8, uint8) {
	c := colorful.Color{
		R: float64(r) / maxChannel,
		G: float64(g) / maxChannel,
		B: float64(b) / maxChannel,
	}
	hue, chroma, lightness := c.Hcl()

	current := lightness * lightnessScale
	target := max(min(current+amount, maxLightness), current)

	lightened := colorful.Hcl(hue, chroma, target/lightnessScale).Clamped()

	return toChannel(lightened.R), toChannel(lightened.G), toChannel(lightened.B)
}

func toChannel(v float64) uint8 {
	return uint8(math.Round(max(0, min(maxChannel, v*maxChannel))))
}
