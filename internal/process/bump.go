package process

import (
	"math"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// prepareBump converts a height map into a normal map: luminance is read
// as height, central differences give the tangent slopes, and the
// normalized result lands in the color channels with the original height
// kept in alpha. Edges wrap, since height maps tile.
func prepareBump(b *plate.Bitmap, shape tag.DataType, bumpHeight float64) {
	forEachSlice(b, shape, func(slice []pixel.Pixel) {
		bumpSlice(slice, b.Width, b.Height, bumpHeight)
	})
}

func bumpSlice(slice []pixel.Pixel, w, h int, bumpHeight float64) {
	heights := make([]uint8, len(slice))
	for i, p := range slice {
		heights[i] = p.Luminance()
	}

	at := func(x, y int) float64 {
		x = (x + w) % w
		y = (y + h) % h
		return float64(heights[y*w+x]) / 255
	}

	// The apparent height scales the slope of the full 0..255 range
	// relative to one texel of distance.
	strength := bumpHeight * 128

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x-1, y) - at(x+1, y)) * strength
			dy := (at(x, y-1) - at(x, y+1)) * strength

			norm := math.Sqrt(dx*dx + dy*dy + 1)
			slice[y*w+x] = pixel.Pixel{
				Red:   biasChannel(dx / norm),
				Green: biasChannel(dy / norm),
				Blue:  biasChannel(1 / norm),
				Alpha: heights[y*w+x],
			}
		}
	}
}

// biasChannel maps a normal component from [-1, 1] into [0, 255].
func biasChannel(n float64) uint8 {
	v := math.Round((n*0.5 + 0.5) * 255)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}
