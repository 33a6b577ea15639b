// Package pixel provides the RGBA raster representation shared by the logo pipeline.
package pixel

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

const (
	// Channels is the number of interleaved bytes per pixel (R, G, B, A).
	Channels = 4
	// VisibleAlpha is the hard alpha threshold used by analysis and lightening:
	// pixels with alpha below it are treated as transparent.
	VisibleAlpha = 128
)

// ErrBufferSize is returned when a buffer's data length does not match its dimensions.
var ErrBufferSize = errors.New("pixel data length does not match dimensions")

// Buffer is a decoded RGBA8 image: row-major, interleaved, straight (non-premultiplied)
// alpha, no row padding.
type Buffer struct {
	Data   []byte
	Width  int
	Height int
}

// NewBuffer allocates a zeroed (fully transparent) buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*Channels),
	}
}

// Offset returns the index of the red byte of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// Pixels returns Width*Height.
func (b *Buffer) Pixels() int {
	return b.Width * b.Height
}

// Validate checks the length invariant.
func (b *Buffer) Validate() error {
	if b.Width < 0 || b.Height < 0 || len(b.Data) != b.Width*b.Height*Channels {
		return fmt.Errorf(
			"%dx%d buffer with %d bytes: %w",
			b.Width,
			b.Height,
			len(b.Data),
			ErrBufferSize,
		)
	}

	return nil
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.Data))
	copy(data, b.Data)

	return &Buffer{Width: b.Width, Height: b.Height, Data: data}
}

// ToNRGBA wraps the buffer as an *image.NRGBA without copying. The returned
// image aliases b.Data.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Data,
		Stride: b.Width * Channels,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts any image into a Buffer with straight alpha.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	buf := NewBuffer(bounds.Dx(), bounds.Dy())

	if nrgba, ok := img.(*image.NRGBA); ok {
		rowLen := buf.Width * Channels
		for y := range buf.Height {
			srcOff := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Data[y*rowLen:(y+1)*rowLen], nrgba.Pix[srcOff:srcOff+rowLen])
		}

		return buf
	}

	draw.Draw(buf.ToNRGBA(), image.Rect(0, 0, buf.Width, buf.Height), img, bounds.Min, draw.Src)

	return buf
}
