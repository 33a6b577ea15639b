package pixel

import (
	"image"

	"github.com/disintegration/imaging"
)

// ContentBounds returns the bounding box of every pixel whose alpha is non-zero.
// ok is false when the buffer is entirely transparent.
func ContentBounds(buf *Buffer) (image.Rectangle, bool) {
	minX, minY := buf.Width, buf.Height
	maxX, maxY := -1, -1

	for y := range buf.Height {
		for x := range buf.Width {
			if buf.Data[buf.Offset(x, y)+3] == 0 {
				continue
			}

			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if maxX < 0 {
		return image.Rectangle{}, false
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Trim crops fully transparent border rows and columns. A buffer without any
// visible content is returned as an unmodified copy.
func Trim(buf *Buffer) (*Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	rect, ok := ContentBounds(buf)
	if !ok || rect == image.Rect(0, 0, buf.Width, buf.Height) {
		return buf.Clone(), nil
	}

	return FromImage(imaging.Crop(buf.ToNRGBA(), rect)), nil
}
