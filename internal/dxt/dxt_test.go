package dxt

import (
	"encoding/binary"
	"testing"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
)

func solid(w, h int, p pixel.Pixel) []pixel.Pixel {
	pixels := make([]pixel.Pixel, w*h)
	for i := range pixels {
		pixels[i] = p
	}
	return pixels
}

func TestDXT1SolidBlock(t *testing.T) {
	out := EncodeDXT1(solid(4, 4, pixel.Pixel{Red: 0xFF, Alpha: 0xFF}), 4, 4)
	if len(out) != 8 {
		t.Fatalf("size: got %d, want 8", len(out))
	}
	c0 := binary.LittleEndian.Uint16(out[0:])
	c1 := binary.LittleEndian.Uint16(out[2:])
	if c0 != c1 {
		t.Errorf("solid block endpoints differ: %04x vs %04x", c0, c1)
	}
	// Pure red in 565.
	if c0 != 0xF800 {
		t.Errorf("endpoint: got %04x, want f800", c0)
	}
	if indices := binary.LittleEndian.Uint32(out[4:]); indices != 0 {
		t.Errorf("solid block indices: got %08x, want 0", indices)
	}
}

func TestDXT1TransparentMode(t *testing.T) {
	pixels := solid(4, 4, pixel.Pixel{Green: 0xFF, Alpha: 0xFF})
	pixels[5] = pixel.Pixel{Alpha: 0} // one transparent texel

	out := EncodeDXT1(pixels, 4, 4)
	c0 := binary.LittleEndian.Uint16(out[0:])
	c1 := binary.LittleEndian.Uint16(out[2:])
	if c0 > c1 {
		t.Errorf("transparent block must use c0 <= c1, got %04x > %04x", c0, c1)
	}
	indices := binary.LittleEndian.Uint32(out[4:])
	if idx := (indices >> (2 * 5)) & 3; idx != 3 {
		t.Errorf("transparent texel index: got %d, want 3", idx)
	}
	if idx := indices & 3; idx == 3 {
		t.Errorf("opaque texel got the transparent index")
	}
}

func TestDXT1AllTransparent(t *testing.T) {
	out := EncodeDXT1(solid(4, 4, pixel.Pixel{}), 4, 4)
	indices := binary.LittleEndian.Uint32(out[4:])
	if indices != 0xFFFFFFFF {
		t.Errorf("all-transparent indices: got %08x", indices)
	}
}

func TestDXT3AlphaNibbles(t *testing.T) {
	pixels := solid(4, 4, pixel.Pixel{Red: 0xFF, Alpha: 0xFF})
	pixels[0] = pixel.Pixel{Red: 0xFF, Alpha: 0x00}
	pixels[1] = pixel.Pixel{Red: 0xFF, Alpha: 0x88}

	out := EncodeDXT3(pixels, 4, 4)
	if len(out) != 16 {
		t.Fatalf("size: got %d, want 16", len(out))
	}
	// Texel 0 in the low nibble, texel 1 in the high nibble.
	if out[0] != 0x80 {
		t.Errorf("alpha byte 0: got %02x, want 80", out[0])
	}
	if out[1] != 0xFF {
		t.Errorf("alpha byte 1: got %02x, want ff", out[1])
	}
}

func TestDXT5AlphaEndpoints(t *testing.T) {
	pixels := solid(4, 4, pixel.Pixel{Red: 0xFF, Alpha: 0x20})
	pixels[3] = pixel.Pixel{Red: 0xFF, Alpha: 0xE0}

	out := EncodeDXT5(pixels, 4, 4)
	if len(out) != 16 {
		t.Fatalf("size: got %d, want 16", len(out))
	}
	if out[0] != 0xE0 || out[1] != 0x20 {
		t.Errorf("alpha endpoints: got %02x,%02x, want e0,20", out[0], out[1])
	}

	// Texel 3's three-bit index must select endpoint a0 (index 0).
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(out[2+i]) << (8 * i)
	}
	if idx := (bits >> (3 * 3)) & 7; idx != 0 {
		t.Errorf("texel 3 alpha index: got %d, want 0", idx)
	}
	if idx := bits & 7; idx != 1 {
		t.Errorf("texel 0 alpha index: got %d, want 1", idx)
	}
}

func TestBlockPaddingForSmallImages(t *testing.T) {
	cases := []struct {
		w, h int
		want int // blocks
	}{
		{1, 1, 1},
		{2, 2, 1},
		{4, 4, 1},
		{8, 4, 2},
		{6, 6, 4},
		{64, 64, 256},
	}
	for _, c := range cases {
		out := EncodeDXT1(solid(c.w, c.h, pixel.Pixel{Alpha: 0xFF}), c.w, c.h)
		if len(out) != c.want*8 {
			t.Errorf("%dx%d: got %d bytes, want %d", c.w, c.h, len(out), c.want*8)
		}
	}
}

func TestExtractBlockClampsEdges(t *testing.T) {
	pixels := []pixel.Pixel{
		{Red: 1, Alpha: 0xFF}, {Red: 2, Alpha: 0xFF},
		{Red: 3, Alpha: 0xFF}, {Red: 4, Alpha: 0xFF},
	}
	blk := ExtractBlock(pixels, 2, 2, 0, 0)
	if blk[0].Red != 1 || blk[3].Red != 2 {
		t.Errorf("row 0: got %d...%d", blk[0].Red, blk[3].Red)
	}
	// Rows past the image repeat the last row.
	if blk[15].Red != 4 {
		t.Errorf("clamped corner: got %d, want 4", blk[15].Red)
	}
}
