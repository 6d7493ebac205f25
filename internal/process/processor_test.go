package process

import (
	"testing"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

func solidBitmap(w, h int, p pixel.Pixel) *plate.Bitmap {
	b := &plate.Bitmap{Width: w, Height: h, Depth: 1, Pixels: make([]pixel.Pixel, w*h)}
	for i := range b.Pixels {
		b.Pixels[i] = p
	}
	return b
}

func singleBitmapPlate(b *plate.Bitmap) *plate.ColorPlate {
	return &plate.ColorPlate{
		Bitmaps:   []*plate.Bitmap{b},
		Sequences: []plate.Sequence{{FirstBitmap: 0, BitmapCount: 1}},
	}
}

func TestMipmapChainDimensions(t *testing.T) {
	b := solidBitmap(64, 64, pixel.Pixel{Red: 0x80, Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		Usage:          tag.UsageDefault,
		MaxMipmapCount: FullMipmapChain,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if b.MipmapCount != 6 {
		t.Fatalf("mipmap count: got %d, want 6", b.MipmapCount)
	}

	levels := b.Levels(tag.DataType2D)
	wantDims := []int{64, 32, 16, 8, 4, 2, 1}
	if len(levels) != len(wantDims) {
		t.Fatalf("levels: got %d, want %d", len(levels), len(wantDims))
	}
	for k, lvl := range levels {
		if lvl.Width != wantDims[k] || lvl.Height != wantDims[k] {
			t.Errorf("level %d: got %dx%d, want %dx%d", k, lvl.Width, lvl.Height, wantDims[k], wantDims[k])
		}
		if len(lvl.Pixels) != lvl.Width*lvl.Height {
			t.Errorf("level %d: %d pixels for %dx%d", k, len(lvl.Pixels), lvl.Width, lvl.Height)
		}
	}
}

func TestMipmapCap(t *testing.T) {
	b := solidBitmap(64, 64, pixel.Pixel{Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: 2,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if b.MipmapCount != 2 {
		t.Errorf("capped mipmap count: got %d, want 2", b.MipmapCount)
	}
}

func TestInterfaceBitmapsSkipMipmaps(t *testing.T) {
	b := solidBitmap(64, 64, pixel.Pixel{Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.TypeInterfaceBitmaps,
		MaxMipmapCount: FullMipmapChain,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if b.MipmapCount != 0 {
		t.Errorf("interface mipmap count: got %d, want 0", b.MipmapCount)
	}
}

func TestLinearFilterAverages(t *testing.T) {
	b := &plate.Bitmap{Width: 2, Height: 2, Depth: 1, Pixels: []pixel.Pixel{
		{Red: 0, Alpha: 0xFF}, {Red: 100, Alpha: 0xFF},
		{Red: 100, Alpha: 0xFF}, {Red: 200, Alpha: 0xFF},
	}}
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: FullMipmapChain,
		ScaleType:      ScaleLinear,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	got := b.Levels(tag.DataType2D)[1].Pixels[0]
	if got.Red != 100 {
		t.Errorf("box filter red: got %d, want 100", got.Red)
	}
	if got.Alpha != 0xFF {
		t.Errorf("box filter alpha: got %d, want 255", got.Alpha)
	}
}

func TestNearestFilterPicksTopLeft(t *testing.T) {
	b := &plate.Bitmap{Width: 2, Height: 2, Depth: 1, Pixels: []pixel.Pixel{
		{Red: 10, Alpha: 0xFF}, {Red: 100, Alpha: 0xFF},
		{Red: 100, Alpha: 0xFF}, {Red: 200, Alpha: 0xFF},
	}}
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: FullMipmapChain,
		ScaleType:      ScaleNearest,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := b.Levels(tag.DataType2D)[1].Pixels[0]; got.Red != 10 {
		t.Errorf("nearest red: got %d, want 10", got.Red)
	}
}

func TestNearestAlphaPreservesCutout(t *testing.T) {
	b := &plate.Bitmap{Width: 2, Height: 2, Depth: 1, Pixels: []pixel.Pixel{
		{Red: 200, Alpha: 0xFF}, {Red: 200, Alpha: 0},
		{Red: 200, Alpha: 0}, {Red: 200, Alpha: 0},
	}}
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: FullMipmapChain,
		ScaleType:      ScaleNearestAlpha,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := b.Levels(tag.DataType2D)[1].Pixels[0]; got.Alpha != 0xFF {
		t.Errorf("nearest alpha: got %d, want the top-left 255", got.Alpha)
	}
}

func TestAlphaBiasClamps(t *testing.T) {
	b := solidBitmap(4, 4, pixel.Pixel{Red: 50, Alpha: 100})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: 0,
		AlphaBias:      -0.5, // -127.5 rounds to -128
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := b.Pixels[0].Alpha; got != 0 {
		t.Errorf("negative bias: got alpha %d, want 0", got)
	}

	b = solidBitmap(4, 4, pixel.Pixel{Red: 50, Alpha: 200})
	if err := Process(singleBitmapPlate(b), Options{Type: tag.Type2DTextures, AlphaBias: 0.5}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := b.Pixels[0].Alpha; got != 0xFF {
		t.Errorf("positive bias: got alpha %d, want 255", got)
	}
}

func TestDetailFadePullsMipsToGrey(t *testing.T) {
	b := solidBitmap(8, 8, pixel.Pixel{Red: 0xFF, Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		Usage:          tag.UsageDetailMap,
		MaxMipmapCount: FullMipmapChain,
		DetailFade:     1,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	levels := b.Levels(tag.DataType2D)
	if got := levels[0].Pixels[0].Red; got != 0xFF {
		t.Errorf("base level faded: red %d", got)
	}
	for k := 1; k < len(levels); k++ {
		p := levels[k].Pixels[0]
		if p.Red != 128 || p.Green != 128 || p.Blue != 128 || p.Alpha != 128 {
			t.Errorf("level %d: got %+v, want neutral grey", k, p)
		}
	}
}

func TestBumpPreparationFlatMap(t *testing.T) {
	b := solidBitmap(8, 8, pixel.Pixel{Red: 0x80, Green: 0x80, Blue: 0x80, Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		Usage:          tag.UsageHeightMap,
		MaxMipmapCount: 0,
		BumpHeight:     0.026,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	p := b.Pixels[0]
	if p.Red != 128 || p.Green != 128 || p.Blue != 255 {
		t.Errorf("flat map normal: got (%d,%d,%d), want (128,128,255)", p.Red, p.Green, p.Blue)
	}
	if p.Alpha != 0x80 {
		t.Errorf("height in alpha: got %d, want 128", p.Alpha)
	}
}

func TestBumpPreparationSlope(t *testing.T) {
	// A horizontal ramp: the x component of the normal must move off
	// center while y stays put.
	b := &plate.Bitmap{Width: 8, Height: 8, Depth: 1, Pixels: make([]pixel.Pixel, 64)}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := uint8(x * 30)
			b.Pixels[y*8+x] = pixel.Pixel{Red: v, Green: v, Blue: v, Alpha: 0xFF}
		}
	}
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		Usage:          tag.UsageHeightMap,
		MaxMipmapCount: 0,
		BumpHeight:     0.2,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	p := b.Pixels[3*8+3]
	if p.Red >= 128 {
		t.Errorf("ramp normal x: got %d, want below 128 for a rising ramp", p.Red)
	}
	if p.Green != 128 {
		t.Errorf("ramp normal y: got %d, want 128", p.Green)
	}
}

func TestPreFilterKeepsDimensions(t *testing.T) {
	b := solidBitmap(16, 16, pixel.Pixel{Red: 200, Green: 10, Blue: 10, Alpha: 0xFF})
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type2DTextures,
		MaxMipmapCount: 0,
		Blur:           1.5,
		Sharpen:        0.5,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(b.Pixels) != 16*16 {
		t.Errorf("pixels after filtering: got %d, want %d", len(b.Pixels), 16*16)
	}
	// A solid color survives blur and sharpen unchanged.
	if got := b.Pixels[8*16+8]; got.Red != 200 {
		t.Errorf("solid color after filters: red %d, want 200", got.Red)
	}
}

func TestCubeMipmapsPerFace(t *testing.T) {
	face := func(v uint8) []pixel.Pixel {
		s := make([]pixel.Pixel, 16)
		for i := range s {
			s[i] = pixel.Pixel{Red: v, Alpha: 0xFF}
		}
		return s
	}
	b := &plate.Bitmap{Width: 4, Height: 4, Depth: 1}
	for f := 0; f < 6; f++ {
		b.Pixels = append(b.Pixels, face(uint8(f*40))...)
	}

	err := Process(&plate.ColorPlate{
		Bitmaps:   []*plate.Bitmap{b},
		Sequences: []plate.Sequence{{FirstBitmap: 0, BitmapCount: 1}},
	}, Options{
		Type:           tag.TypeCubeMaps,
		MaxMipmapCount: FullMipmapChain,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if b.MipmapCount != 2 {
		t.Fatalf("cube mipmap count: got %d, want 2", b.MipmapCount)
	}

	levels := b.Levels(tag.DataTypeCubeMap)
	if len(levels[1].Pixels) != 6*2*2 {
		t.Fatalf("level 1 pixels: got %d, want %d", len(levels[1].Pixels), 6*2*2)
	}
	// Faces stay separate: each face's mip keeps its own marker color.
	for f := 0; f < 6; f++ {
		if got := levels[1].Pixels[f*4].Red; got != uint8(f*40) {
			t.Errorf("face %d mip marker: got %d, want %d", f, got, f*40)
		}
	}
}

func Test3DMipmapsHalveDepth(t *testing.T) {
	b := &plate.Bitmap{Width: 4, Height: 4, Depth: 4, Pixels: make([]pixel.Pixel, 4*4*4)}
	for i := range b.Pixels {
		b.Pixels[i] = pixel.Pixel{Red: 100, Alpha: 0xFF}
	}
	err := Process(singleBitmapPlate(b), Options{
		Type:           tag.Type3DTextures,
		MaxMipmapCount: FullMipmapChain,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	levels := b.Levels(tag.DataType3D)
	if b.MipmapCount != 2 {
		t.Fatalf("3d mipmap count: got %d, want 2", b.MipmapCount)
	}
	if levels[1].Depth != 2 || levels[2].Depth != 1 {
		t.Errorf("depths: got %d then %d, want 2 then 1", levels[1].Depth, levels[2].Depth)
	}
}
