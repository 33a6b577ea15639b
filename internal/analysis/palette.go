package analysis

import (
	"errors"
	"fmt"
	"image"
	"math"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/book-expert/logo-variants-service/internal/pixel"
)

// PaletteMethod selects the palette extraction algorithm.
type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

// ErrUnknownPaletteMethod is returned by ParsePaletteMethod for unrecognized names.
var ErrUnknownPaletteMethod = errors.New("unknown palette method")

// maxKMeansSamples bounds the k-means dataset; larger images are subsampled.
const maxKMeansSamples = 12000

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod maps a configuration value to a PaletteMethod. The empty
// string selects the dominant-color method.
func ParsePaletteMethod(name string) (PaletteMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dominantcolor":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	default:
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownPaletteMethod)
	}
}

// ExtractPalette returns up to k representative colors of the opaque content as
// "#rrggbb" strings, most dominant first. It is informational only.
func ExtractPalette(img image.Image, k int, method PaletteMethod) []string {
	if k <= 0 {
		return nil
	}

	var palette []colorful.Color

	if method == PaletteMethodKMeans {
		palette = kMeansPalette(img, k)
	}

	if len(palette) == 0 {
		palette = dominantPalette(img, k)
	}

	hexes := make([]string, 0, len(palette))
	for _, c := range palette {
		hexes = append(hexes, c.Clamped().Hex())
	}

	return hexes
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	candidates := dominantcolor.FindWeight(img, k)

	palette := make([]colorful.Color, 0, len(candidates))
	for _, candidate := range candidates {
		col, _ := colorful.MakeColor(candidate.RGBA)
		palette = append(palette, col)
	}

	return palette
}

func kMeansPalette(img image.Image, k int) []colorful.Color {
	bounds := img.Bounds()

	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	step := 1
	if width*height > maxKMeansSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxKMeansSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxKMeansSamples))

	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16>>8 < pixel.VisibleAlpha {
				continue
			}
			// Un-premultiply so partially transparent edges keep their hue.
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / float64(a16),
				float64(g16) / float64(a16),
				float64(b16) / float64(a16),
			})
		}
	}

	if len(dataset) == 0 {
		return nil
	}

	partitions, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil || len(partitions) == 0 {
		return nil
	}

	slices.SortFunc(partitions, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})

	palette := make([]colorful.Color, 0, len(partitions))
	for _, cluster := range partitions {
		if len(cluster.Observations) == 0 || len(cluster.Center) < 3 {
			continue
		}

		palette = append(palette, colorful.Color{
			R: cluster.Center[0],
			G: cluster.Center[1],
			B: cluster.Center[2],
		})
	}

	return palette
}
