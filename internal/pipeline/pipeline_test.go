package pipeline_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/bgremoval"
	"github.com/book-expert/logo-variants-service/internal/logoerr"
	"github.com/book-expert/logo-variants-service/internal/pipeline"
	"github.com/book-expert/logo-variants-service/internal/pixel"
	"github.com/book-expert/logo-variants-service/internal/variants"
)

// fakeRemover returns a canned result and records what it received.
type fakeRemover struct {
	err      error
	result   []byte
	received []byte
}

func (f *fakeRemover) RemoveBackground(_ context.Context, image []byte) ([]byte, error) {
	f.received = image
	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	return log
}

// blackSquarePNG is a 100x100 transparent canvas with an opaque black 50x50
// square in the middle.
func blackSquarePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for y := 25; y < 75; y++ {
		for x := 25; x < 75; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func newService(t *testing.T, remover bgremoval.Remover, maxPixels int) *pipeline.Service {
	t.Helper()

	service, err := pipeline.NewService(&pipeline.Options{
		Remover:       remover,
		MaxPixels:     maxPixels,
		PaletteSize:   3,
		PaletteMethod: analysis.PaletteMethodDominantColor,
	}, newTestLogger(t))
	require.NoError(t, err)

	return service
}

func TestNewService_RequiresRemover(t *testing.T) {
	t.Parallel()

	_, err := pipeline.NewService(&pipeline.Options{}, newTestLogger(t))
	require.ErrorIs(t, err, logoerr.ErrConfiguration)
}

func TestProcess_BlackSquare(t *testing.T) {
	t.Parallel()

	remover := &fakeRemover{result: blackSquarePNG(t)}
	service := newService(t, remover, 0)

	result, err := service.Process(context.Background(), "req-1", []byte("raw upload"))
	require.NoError(t, err)
	assert.Equal(t, "raw upload", string(remover.received))

	assert.True(t, result.Analysis.IsPredominantlyDark)
	assert.False(t, result.Analysis.IsPredominantlyLight)
	assert.InDelta(t, 0.0, result.Analysis.AvgLuminance, 1e-9)
	assert.Equal(t, 2500, result.Analysis.VisiblePixels)
	require.NotEmpty(t, result.Palette)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, result.Palette[0])

	require.Len(t, result.Variants, 3)

	ids := make([]string, 0, len(result.Variants))
	for _, variant := range result.Variants {
		ids = append(ids, variant.ID)

		// Trimming leaves the 50x50 square; the outline never grows the canvas.
		decoded, decodeErr := pixel.Decode(variant.PNG, 0)
		require.NoError(t, decodeErr)
		assert.Equal(t, 50, decoded.Width)
		assert.Equal(t, 50, decoded.Height)
	}

	assert.Equal(t, []string{variants.IDOriginalOutline, variants.IDBalanced, variants.IDHighContrast}, ids)
}

func TestProcess_AllTransparent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 10, 10))))

	service := newService(t, &fakeRemover{result: buf.Bytes()}, 0)

	result, err := service.Process(context.Background(), "req-2", []byte("x"))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.Analysis.AvgLuminance, 1e-9)
	assert.False(t, result.Analysis.IsPredominantlyDark)
	assert.False(t, result.Analysis.IsPredominantlyLight)
	assert.Empty(t, result.Palette)
	require.Len(t, result.Variants, 3)

	for _, variant := range result.Variants {
		decoded, decodeErr := pixel.Decode(variant.PNG, 0)
		require.NoError(t, decodeErr)

		for i := 3; i < len(decoded.Data); i += pixel.Channels {
			require.Zero(t, decoded.Data[i], variant.ID)
		}
	}
}

func TestProcess_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		remover bgremoval.Remover
		wantErr error
		name    string
		input   []byte
		maxPix  int
	}{
		{
			name:    "Empty input",
			remover: bgremoval.Passthrough{},
			input:   nil,
			wantErr: logoerr.ErrInvalidImage,
		},
		{
			name:    "Upstream failure propagates",
			remover: &fakeRemover{err: &logoerr.UpstreamError{StatusCode: http.StatusForbidden, Body: "denied"}},
			input:   []byte("x"),
			wantErr: logoerr.ErrUpstream,
		},
		{
			name:    "Missing credential propagates",
			remover: &fakeRemover{err: bgremoval.ErrMissingAPIKey},
			input:   []byte("x"),
			wantErr: logoerr.ErrConfiguration,
		},
		{
			name:    "Undecodable removal result",
			remover: &fakeRemover{result: []byte("not an image")},
			input:   []byte("x"),
			wantErr: logoerr.ErrInvalidImage,
		},
		{
			name:    "Pixel ceiling",
			remover: bgremoval.Passthrough{},
			input:   blackSquarePNG(t),
			maxPix:  99,
			wantErr: logoerr.ErrInvalidImage,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			service := newService(t, testCase.remover, testCase.maxPix)

			result, err := service.Process(context.Background(), "req", testCase.input)
			require.ErrorIs(t, err, testCase.wantErr)
			assert.Nil(t, result)
		})
	}
}
