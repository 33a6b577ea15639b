package outline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logo-variants-service/internal/outline"
	"github.com/book-expert/logo-variants-service/internal/pixel"
)

// blackSquare is the 100x100 canvas with an opaque 50x50 black square at [25,75).
func blackSquare() *pixel.Buffer {
	buf := pixel.NewBuffer(100, 100)
	for y := 25; y < 75; y++ {
		for x := 25; x < 75; x++ {
			buf.Data[buf.Offset(x, y)+3] = 255
		}
	}

	return buf
}

// distanceSquaredToSquare is the squared distance from (x, y) to the nearest square pixel.
func distanceSquaredToSquare(x, y int) int {
	dx := max(25-x, 0, x-74)
	dy := max(25-y, 0, y-74)

	return dx*dx + dy*dy
}

func TestCreate_BlackSquareRing(t *testing.T) {
	t.Parallel()

	src := blackSquare()
	ring := outline.Create(src, outline.White, 2)

	require.Equal(t, src.Width, ring.Width)
	require.Equal(t, src.Height, ring.Height)

	for y := range ring.Height {
		for x := range ring.Width {
			off := ring.Offset(x, y)
			require.Equal(t, []byte{255, 255, 255}, ring.Data[off:off+3])

			d2 := distanceSquaredToSquare(x, y)

			var want byte
			if d2 > 0 && d2 <= 4 {
				want = 255
			}

			require.Equalf(t, want, ring.Data[off+3], "alpha at (%d,%d)", x, y)
		}
	}

	// The ring is exactly two pixels thick along the edges.
	assert.Equal(t, byte(255), ring.Data[ring.Offset(23, 50)+3])
	assert.Equal(t, byte(0), ring.Data[ring.Offset(22, 50)+3])
	assert.Equal(t, byte(255), ring.Data[ring.Offset(76, 50)+3])
	assert.Equal(t, byte(0), ring.Data[ring.Offset(77, 50)+3])
}

func TestCreate_ZeroWidthIsEmpty(t *testing.T) {
	t.Parallel()

	ring := outline.Create(blackSquare(), outline.DarkGray, 0)
	for i := 3; i < len(ring.Data); i += pixel.Channels {
		require.Zero(t, ring.Data[i])
	}
}

func TestCreate_DoesNotModifySource(t *testing.T) {
	t.Parallel()

	src := blackSquare()
	before := src.Clone()

	_ = outline.Create(src, outline.White, 3)
	assert.Equal(t, before.Data, src.Data)
}

func TestCreate_AllTransparent(t *testing.T) {
	t.Parallel()

	ring := outline.Create(pixel.NewBuffer(5, 5), outline.NeutralGray, 2)
	for i := 3; i < len(ring.Data); i += pixel.Channels {
		require.Zero(t, ring.Data[i])
	}
}

func TestDilate(t *testing.T) {
	t.Parallel()

	t.Run("Disk excludes corners beyond the radius", func(t *testing.T) {
		t.Parallel()

		alpha := make([]byte, 5*5)
		alpha[2*5+2] = 200

		dilated := outline.Dilate(alpha, 5, 5, 1)
		assert.Equal(t, byte(200), dilated[1*5+2])
		assert.Equal(t, byte(200), dilated[2*5+1])
		assert.Equal(t, byte(0), dilated[1*5+1], "diagonal neighbor is outside radius 1")
	})

	t.Run("Edges use only in-bounds neighbors", func(t *testing.T) {
		t.Parallel()

		alpha := []byte{
			10, 20, 30,
			40, 50, 60,
		}
		dilated := outline.Dilate(alpha, 3, 2, 1)
		assert.Equal(t, []byte{40, 50, 60, 50, 60, 60}, dilated)
	})

	t.Run("Continuous alpha values spread unchanged", func(t *testing.T) {
		t.Parallel()

		alpha := []byte{0, 100, 0}
		ring := outline.Dilate(alpha, 3, 1, 1)
		assert.Equal(t, []byte{100, 100, 100}, ring)
	})
}
