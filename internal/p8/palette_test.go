package p8

import (
	"testing"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
)

func TestFlatNormalIsIndexZero(t *testing.T) {
	flat := Lookup(0)
	if flat.Red != 128 || flat.Green != 128 || flat.Blue != 255 {
		t.Fatalf("index 0: got (%d,%d,%d), want the flat normal (128,128,255)",
			flat.Red, flat.Green, flat.Blue)
	}
	if got := NearestIndex(flat); got != 0 {
		t.Errorf("nearest(flat): got %d, want 0", got)
	}
}

func TestNearestIndexIsStable(t *testing.T) {
	// Quantizing a palette entry must land on a color identical to
	// that entry, so palettized data survives regeneration exactly.
	for i := 0; i < Entries; i++ {
		e := Lookup(uint8(i))
		got := Lookup(NearestIndex(e))
		if got.Red != e.Red || got.Green != e.Green || got.Blue != e.Blue {
			t.Fatalf("entry %d: quantized to a different color (%+v vs %+v)", i, got, e)
		}
	}
}

func TestNearestIndexPrefersCloseNormals(t *testing.T) {
	// A normal leaning +x should quantize to an entry with red above
	// the midpoint.
	leaning := pixel.Pixel{Red: 220, Green: 128, Blue: 180, Alpha: 0xFF}
	e := Lookup(NearestIndex(leaning))
	if e.Red <= 128 {
		t.Errorf("leaning +x quantized to red %d, want above 128", e.Red)
	}
}

func TestPaletteEntriesAreUnitNormals(t *testing.T) {
	for i := 0; i < Entries; i++ {
		e := Lookup(uint8(i))
		x := float64(e.Red)/127.5 - 1
		y := float64(e.Green)/127.5 - 1
		z := float64(e.Blue)/127.5 - 1
		len2 := x*x + y*y + z*z
		if len2 < 0.9 || len2 > 1.1 {
			t.Errorf("entry %d: length^2 %.3f, want near 1", i, len2)
		}
		if z < -0.05 {
			t.Errorf("entry %d: z %.3f points into the surface", i, z)
		}
	}
}
