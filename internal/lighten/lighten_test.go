package lighten_test

import (
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logo-variants-service/internal/analysis"
	"github.com/book-expert/logo-variants-service/internal/lighten"
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

func lightnessOf(r, g, b byte) float64 {
	_, _, l := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hcl()

	return l * 100
}

func bufferOf(pixels ...[4]byte) *pixel.Buffer {
	buf := pixel.NewBuffer(len(pixels), 1)
	for i, p := range pixels {
		copy(buf.Data[i*4:i*4+4], p[:])
	}

	return buf
}

func TestContrastWithDark(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, lighten.ContrastWithDark(0.1), 1e-12)
	assert.InDelta(t, 3.0, lighten.ContrastWithDark(0.0), 1e-12)
	assert.InDelta(t, 7.0, lighten.ContrastWithDark(1.0), 1e-12)
}

func TestApply_TransparentPixelsPassThrough(t *testing.T) {
	t.Parallel()

	src := bufferOf(
		[4]byte{0, 0, 0, 0},
		[4]byte{10, 20, 30, 127},
		[4]byte{1, 2, 3, 64},
	)

	for _, params := range []lighten.Params{lighten.Balanced, lighten.HighContrast} {
		out := lighten.Apply(src, params)
		assert.Equal(t, src.Data, out.Data)
	}
}

func TestApply_LightPixelsUntouched(t *testing.T) {
	t.Parallel()

	src := bufferOf(
		[4]byte{255, 255, 255, 255},
		[4]byte{200, 180, 40, 255},
		[4]byte{140, 140, 140, 255},
	)

	out := lighten.Apply(src, lighten.HighContrast)
	assert.Equal(t, src.Data, out.Data)
}

func TestApply_BlackSitsOnTheBalancedThreshold(t *testing.T) {
	t.Parallel()

	src := bufferOf([4]byte{0, 0, 0, 255})

	// Black against the dark reference evaluates to 3.0000000000000004, which
	// is not below the balanced minimum of 3.0.
	assert.GreaterOrEqual(t, lighten.ContrastWithDark(0), lighten.Balanced.MinContrast)

	balanced := lighten.Apply(src, lighten.Balanced)
	assert.Equal(t, src.Data, balanced.Data)

	strong := lighten.Apply(src, lighten.HighContrast)
	assert.InDelta(t, 35, lightnessOf(strong.Data[0], strong.Data[1], strong.Data[2]), 0.5)
	assert.Equal(t, strong.Data[0], strong.Data[1])
	assert.Equal(t, strong.Data[1], strong.Data[2])
	assert.Equal(t, byte(255), strong.Data[3])
}

func TestApply_BalancedLightensDarkGray(t *testing.T) {
	t.Parallel()

	src := bufferOf([4]byte{30, 30, 30, 255})
	require.Less(t, lighten.ContrastWithDark(analysis.Luminance(30, 30, 30)), lighten.Balanced.MinContrast)

	before := lightnessOf(30, 30, 30)

	balanced := lighten.Apply(src, lighten.Balanced)
	assert.InDelta(t, before+20, lightnessOf(balanced.Data[0], balanced.Data[1], balanced.Data[2]), 0.5)
	assert.Equal(t, balanced.Data[0], balanced.Data[1])
	assert.Equal(t, balanced.Data[1], balanced.Data[2])
	assert.Equal(t, byte(255), balanced.Data[3])
}

func TestApply_LightnessIsCapped(t *testing.T) {
	t.Parallel()

	// Teal: luminance below 0.5, lightness around 62.
	src := bufferOf([4]byte{0, 170, 170, 255})

	out := lighten.Apply(src, lighten.HighContrast)
	after := lightnessOf(out.Data[0], out.Data[1], out.Data[2])
	assert.Greater(t, after, lightnessOf(0, 170, 170))
	assert.LessOrEqual(t, after, 85.5)
}

func TestApply_NeverDecreasesLightness(t *testing.T) {
	t.Parallel()

	var colors [][4]byte
	for v := 0; v < 256; v += 15 {
		colors = append(colors, [4]byte{byte(v), byte(v), byte(v), 255})
	}

	colors = append(colors,
		[4]byte{20, 30, 80, 255},
		[4]byte{90, 10, 10, 255},
		[4]byte{10, 60, 20, 255},
		[4]byte{80, 50, 20, 255},
		[4]byte{60, 0, 90, 200},
	)
	src := bufferOf(colors...)

	for _, params := range []lighten.Params{lighten.Balanced, lighten.HighContrast} {
		out := lighten.Apply(src, params)
		require.Equal(t, src.Width, out.Width)

		for i := 0; i < len(src.Data); i += pixel.Channels {
			before := lightnessOf(src.Data[i], src.Data[i+1], src.Data[i+2])
			after := lightnessOf(out.Data[i], out.Data[i+1], out.Data[i+2])
			assert.GreaterOrEqual(t, after, before-0.5, "pixel %d", i/4)
			assert.Equal(t, src.Data[i+3], out.Data[i+3])
		}
	}
}

func TestApply_DoesNotModifySource(t *testing.T) {
	t.Parallel()

	src := bufferOf([4]byte{0, 0, 0, 255})
	_ = lighten.Apply(src, lighten.Balanced)

	assert.Equal(t, []byte{0, 0, 0, 255}, src.Data)
}
