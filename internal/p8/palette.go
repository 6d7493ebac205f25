// Package p8 holds the fixed 256-entry bump palette shared by the
// authoring pipeline and the engine. Indices are stable across builds, so
// a regenerated tag reproduces P8 payloads exactly.
package p8

import (
	"math"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
)

// Entries is the number of palette slots.
const Entries = 256

// palette maps each index to the normal it encodes, biased into RGB.
var palette [Entries]pixel.Pixel

func init() {
	// The palette tiles a 16x16 grid over the upper unit hemisphere.
	// Cell (u, v) maps to a tangent-space offset in [-1, 1]^2 with
	// z = sqrt(1 - x^2 - y^2); cells falling outside the sphere are
	// pulled back onto the rim. Index 0 is the flat normal so a blank
	// height map palettizes to zero bytes.
	for i := 0; i < Entries; i++ {
		u := i % 16
		v := i / 16
		x := (float64(u) - 7.5) / 7.5
		y := (float64(v) - 7.5) / 7.5
		if i == 0 {
			x, y = 0, 0
		}
		if r := math.Hypot(x, y); r > 1 {
			x /= r
			y /= r
		}
		z := math.Sqrt(math.Max(0, 1-x*x-y*y))
		palette[i] = pixel.Pixel{
			Red:   encodeChannel(x),
			Green: encodeChannel(y),
			Blue:  encodeChannel(z),
			Alpha: 0xFF,
		}
	}
}

func encodeChannel(n float64) uint8 {
	v := math.Round((n*0.5 + 0.5) * 255)
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Lookup returns the palette entry for an index.
func Lookup(index uint8) pixel.Pixel {
	return palette[index]
}

// NearestIndex quantizes a pixel to the closest palette entry under a
// perceptually weighted distance over the color channels. Alpha carries
// the original height and does not participate.
func NearestIndex(p pixel.Pixel) uint8 {
	best := 0
	bestDist := int64(math.MaxInt64)
	for i := 0; i < Entries; i++ {
		e := palette[i]
		dr := int64(p.Red) - int64(e.Red)
		dg := int64(p.Green) - int64(e.Green)
		db := int64(p.Blue) - int64(e.Blue)
		d := 2*dr*dr + 4*dg*dg + 3*db*db
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}
