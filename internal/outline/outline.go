// Package outline synthesizes a colored halo around the opaque parts of an image
// by dilating its alpha channel with a circular kernel.
package outline

import (
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

// Color is an opaque RGB outline color.
type Color struct {
	R, G, B uint8
}

var (
	White       = Color{R: 255, G: 255, B: 255}
	NeutralGray = Color{R: 200, G: 200, B: 200}
	DarkGray    = Color{R: 30, G: 30, B: 30}
)

// offset is a neighbor displacement inside the dilation disk.
type offset struct {
	dx, dy int
}

// diskOffsets lists every (dx, dy) with dx²+dy² <= radius².
func diskOffsets(radius int) []offset {
	offsets := make([]offset, 0, (2*radius+1)*(2*radius+1))
	limit := radius * radius

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= limit {
				offsets = append(offsets, offset{dx: dx, dy: dy})
			}
		}
	}

	return offsets
}

// Dilate returns the grayscale dilation of a width*height alpha grid: each cell
// becomes the maximum over in-bounds neighbors within Euclidean distance radius.
// Out-of-bounds neighbors are excluded rather than treated as zero.
func Dilate(alpha []byte, width, height, radius int) []byte {
	dilated := make([]byte, len(alpha))
	if radius <= 0 {
		copy(dilated, alpha)

		return dilated
	}

	offsets := diskOffsets(radius)

	for y := range height {
		for x := range width {
			var maxAlpha byte

			for _, o := range offsets {
				nx, ny := x+o.dx, y+o.dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}

				if a := alpha[ny*width+nx]; a > maxAlpha {
					maxAlpha = a
					if maxAlpha == 255 {
						break
					}
				}
			}

			dilated[y*width+x] = maxAlpha
		}
	}

	return dilated
}

// Create builds an outline layer the size of buf. Every pixel carries the outline
// color; its alpha is the dilated alpha minus the original alpha, so only the ring
// newly covered by the dilation is visible. buf is not modified.
func Create(buf *pixel.Buffer, color Color, width int) *pixel.Buffer {
	alpha := make([]byte, buf.Pixels())
	for i := range alpha {
		alpha[i] = buf.Data[i*pixel.Channels+3]
	}

	dilated := Dilate(alpha, buf.Width, buf.Height, width)

	out := pixel.NewBuffer(buf.Width, buf.Height)
	for i := range alpha {
		off := i * pixel.Channels
		out.Data[off] = color.R
		out.Data[off+1] = color.G
		out.Data[off+2] = color.B
		// Dilation never lowers a value, so the difference cannot underflow.
		out.Data[off+3] = dilated[i] - alpha[i]
	}

	return out
}
