// Package variants composites outline layers under logo layers and produces the
// three visibility-safe logo variants.
package variants

import (
	"math"

	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

const maxChannel = 255.0

// Composite draws base over outline using straight-alpha "over" blending and
// returns the result. Where the outline is fully transparent or the base is fully
// opaque, the base pixel is copied verbatim.
func Composite(base, outline *pixel.Buffer) (*pixel.Buffer, error) {
	if err := base.Validate(); err != nil {
		return nil, logoerr.Processing("composite base", err)
	}

	if err := outline.Validate(); err != nil {
		return nil, logoerr.Processing("composite outline", err)
	}

	if base.Width != outline.Width || base.Height != outline.Height {
		return nil, logoerr.Processing("composite layers differ in size", nil)
	}

	out := pixel.NewBuffer(base.Width, base.Height)

	for i := 0; i+3 < len(base.Data); i += pixel.Channels {
		topA := base.Data[i+3]
		bottomA := outline.Data[i+3]

		if bottomA == 0 || topA == 255 {
			copy(out.Data[i:i+4], base.Data[i:i+4])

			continue
		}

		ta := float64(topA) / maxChannel
		ba := float64(bottomA) / maxChannel
		outA := ta + ba*(1-ta)

		for ch := range 3 {
			top := float64(base.Data[i+ch])
			bottom := float64(outline.Data[i+ch])
			out.Data[i+ch] = toChannel((top*ta + bottom*ba*(1-ta)) / outA)
		}

		out.Data[i+3] = toChannel(outA * maxChannel)
	}

	return out, nil
}

// CompositePNG composites base over outline and encodes the result as PNG.
func CompositePNG(base, outline *pixel.Buffer) ([]byte, error) {
	layered, err := Composite(base, outline)
	if err != nil {
		return nil, err
	}

	return pixel.EncodePNG(layered)
}

func toChannel(v float64) uint8 {
	return uint8(math.Round(max(0, min(maxChannel, v))))
}
