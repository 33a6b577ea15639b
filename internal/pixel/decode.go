package pixel

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register the GIF decoder.
	_ "image/jpeg" // Register the JPEG decoder.
	"image/png"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp" // Register the WebP decoder.

	"github.com/book-expert/logo-variants-service/internal/logoerr"
)

const (
	// svgSniffLen is how many leading bytes are inspected when detecting SVG input.
	svgSniffLen = 512

	// maxSVGSide bounds each rasterized SVG dimension, even with the pixel
	// ceiling disabled.
	maxSVGSide = 1 << 14
)

// Decode turns encoded image bytes (PNG, JPEG, GIF, WebP or SVG) into a Buffer.
// Images with more than maxPixels pixels are rejected before full decoding;
// maxPixels <= 0 disables the check.
func Decode(data []byte, maxPixels int) (*Buffer, error) {
	if len(data) == 0 {
		return nil, logoerr.InvalidImage("empty image data", nil)
	}

	if isSVG(data) {
		return decodeSVG(data, maxPixels)
	}

	cfg, _, cfgErr := image.DecodeConfig(bytes.NewReader(data))
	if cfgErr != nil {
		return nil, logoerr.InvalidImage("could not read image header", cfgErr)
	}

	if err := checkPixelLimit(cfg.Width, cfg.Height, maxPixels); err != nil {
		return nil, err
	}

	img, _, decodeErr := image.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return nil, logoerr.InvalidImage("could not decode image", decodeErr)
	}

	return FromImage(img), nil
}

// EncodePNG encodes the buffer as a PNG with straight alpha.
func EncodePNG(buf *Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, logoerr.Processing("encode png", err)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, buf.ToNRGBA()); err != nil {
		return nil, logoerr.Processing("encode png", err)
	}

	return out.Bytes(), nil
}

func checkPixelLimit(width, height, maxPixels int) error {
	// Divide instead of multiplying so huge dimensions cannot overflow.
	if maxPixels > 0 && height > 0 && width > maxPixels/height {
		return logoerr.InvalidImage(
			fmt.Sprintf("%dx%d exceeds the %d pixel limit", width, height, maxPixels),
			nil,
		)
	}

	return nil
}

func isSVG(data []byte) bool {
	head := data[:min(len(data), svgSniffLen)]

	return bytes.Contains(head, []byte("<svg")) ||
		(bytes.HasPrefix(bytes.TrimSpace(head), []byte("<?xml")) &&
			bytes.Contains(data, []byte("<svg")))
}

// decodeSVG rasterizes an SVG at its viewBox size onto a transparent canvas.
func decodeSVG(data []byte, maxPixels int) (*Buffer, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, logoerr.InvalidImage("could not parse svg", err)
	}

	viewBoxW := icon.ViewBox.W
	viewBoxH := icon.ViewBox.H

	// The viewBox is checked as float64 before any int conversion.
	if math.IsNaN(viewBoxW) || math.IsNaN(viewBoxH) || viewBoxW <= 0 || viewBoxH <= 0 {
		return nil, logoerr.InvalidImage("svg has an empty viewBox", nil)
	}

	if viewBoxW > maxSVGSide || viewBoxH > maxSVGSide ||
		(maxPixels > 0 && math.Ceil(viewBoxW)*math.Ceil(viewBoxH) > float64(maxPixels)) {
		return nil, logoerr.InvalidImage(
			fmt.Sprintf("svg viewBox %gx%g exceeds the size limit", viewBoxW, viewBoxH),
			nil,
		)
	}

	width := int(math.Ceil(viewBoxW))
	height := int(math.Ceil(viewBoxH))

	icon.SetTarget(0, 0, viewBoxW, viewBoxH)

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	scanner.SetClip(img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)

	icon.Draw(raster, 1.0)

	return FromImage(img), nil
}
