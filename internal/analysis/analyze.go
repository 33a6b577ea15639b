// Package analysis classifies a logo as predominantly dark or light from the
// luminance of its visible pixels.
package analysis

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/book-expert/logo-variants-service/internal/pixel"
)

// BT.601 luma weights. Downstream thresholds are tuned to these exact values.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114

	maxChannel = 255.0

	// Integer luma weights (per mille) used to bucket pixels for the spread.
	lumaKeyR   = 299
	lumaKeyG   = 587
	lumaKeyB   = 114
	lumaKeyMax = 1000 * 255
)

const (
	darkLuminance  = 0.3
	lightLuminance = 0.7

	dominantRatio       = 0.4
	darkAvgThreshold    = 0.35
	lightAvgThreshold   = 0.65
	neutralAvgLuminance = 0.5
)

// ColorAnalysis summarizes the luminance distribution of the visible pixels.
type ColorAnalysis struct {
	AvgLuminance         float64
	DarkRatio            float64
	LightRatio           float64
	LuminanceStdDev      float64
	VisiblePixels        int
	IsPredominantlyDark  bool
	IsPredominantlyLight bool
}

// Luminance returns the BT.601 luma of an 8-bit color, normalized to [0, 1].
func Luminance(r, g, b uint8) float64 {
	return (lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)) / maxChannel
}

// Analyze scans every pixel with alpha >= 128 and classifies the image.
// Both flags may be true at once for strongly bimodal images.
func Analyze(buf *pixel.Buffer) ColorAnalysis {
	var (
		sum        float64
		visible    int
		darkCount  int
		lightCount int
	)

	// Sparse: logos rarely use more than a few hundred distinct lumas.
	histogram := make(map[int]float64)

	for i := 0; i+3 < len(buf.Data); i += pixel.Channels {
		if buf.Data[i+3] < pixel.VisibleAlpha {
			continue
		}

		r, g, b := buf.Data[i], buf.Data[i+1], buf.Data[i+2]
		lum := Luminance(r, g, b)
		sum += lum
		visible++
		histogram[lumaKeyR*int(r)+lumaKeyG*int(g)+lumaKeyB*int(b)]++

		if lum < darkLuminance {
			darkCount++
		} else if lum > lightLuminance {
			lightCount++
		}
	}

	result := ColorAnalysis{AvgLuminance: neutralAvgLuminance, VisiblePixels: visible}

	if visible > 0 {
		result.AvgLuminance = sum / float64(visible)
		result.DarkRatio = float64(darkCount) / float64(visible)
		result.LightRatio = float64(lightCount) / float64(visible)
	}

	if visible > 1 {
		result.LuminanceStdDev = luminanceSpread(histogram)
	}

	result.IsPredominantlyDark = result.DarkRatio > dominantRatio ||
		result.AvgLuminance < darkAvgThreshold
	result.IsPredominantlyLight = result.LightRatio > dominantRatio ||
		result.AvgLuminance > lightAvgThreshold

	return result
}

// luminanceSpread returns the sample standard deviation of luminance from a
// histogram keyed by per-mille luma.
func luminanceSpread(histogram map[int]float64) float64 {
	keys := slices.Sorted(maps.Keys(histogram))
	values := make([]float64, len(keys))
	weights := make([]float64, len(keys))

	for i, key := range keys {
		values[i] = float64(key) / lumaKeyMax
		weights[i] = histogram[key]
	}

	return stat.StdDev(values, weights)
}
