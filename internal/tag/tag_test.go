package tag

import (
	"errors"
	"testing"
)

func sampleTag() *Tag {
	return &Tag{
		Type:              TypeSprites,
		Format:            FormatAuto,
		Usage:             UsageDefault,
		Flags:             FlagEnableDiffusionDithering | FlagFilthySpriteBugFix,
		DetailFade:        0.25,
		Sharpen:           0.5,
		BumpHeight:        0.026,
		SpriteBudgetSize:  1,
		SpriteBudgetCount: 2,
		ColorPlateWidth:   64,
		ColorPlateHeight:  32,
		CompressedColorPlate: []byte{
			0x00, 0x00, 0x00, 0x08, 0x78, 0x9C, 0x01, 0x02,
		},
		BlurFilterSize: 1.5,
		AlphaBias:      -0.5,
		MipmapCount:    3,
		SpriteUsage:    SpriteUsageDoubleMultiply,
		SpriteSpacing:  1,
		Sequences: []Sequence{
			{FirstBitmapIndex: 0, BitmapCount: 1, Sprites: []SpriteRecord{
				{BitmapIndex: 0, Left: 0.1, Right: 0.6, Top: 0.2, Bottom: 0.7, RegistrationX: 0.35, RegistrationY: 0.45},
			}},
			{FirstBitmapIndex: 0, BitmapCount: 0},
		},
		Bitmaps: []BitmapData{
			{
				Width: 64, Height: 64, Depth: 1,
				Type: DataType2D, Format: DataFormatDXT1,
				Flags:         DataFlagCompressed,
				RegistrationX: 32, RegistrationY: 32,
				MipmapCount: 6, SequenceIndex: 0,
				PixelOffset: 0, PixelSize: 8,
			},
		},
		PixelData: []byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	want := sampleTag()
	data := Marshal(want)

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Type != want.Type || got.Format != want.Format || got.Usage != want.Usage {
		t.Errorf("header enums: got %v/%v/%v", got.Type, got.Format, got.Usage)
	}
	if got.Flags != want.Flags {
		t.Errorf("flags: got %04x, want %04x", got.Flags, want.Flags)
	}
	if got.DetailFade != want.DetailFade || got.Sharpen != want.Sharpen ||
		got.BlurFilterSize != want.BlurFilterSize || got.AlphaBias != want.AlphaBias ||
		got.BumpHeight != want.BumpHeight {
		t.Error("float fields did not round trip")
	}
	if got.ColorPlateWidth != 64 || got.ColorPlateHeight != 32 {
		t.Errorf("plate dims: got %dx%d", got.ColorPlateWidth, got.ColorPlateHeight)
	}
	if string(got.CompressedColorPlate) != string(want.CompressedColorPlate) {
		t.Error("compressed plate did not round trip")
	}
	if len(got.Sequences) != 2 {
		t.Fatalf("sequences: got %d", len(got.Sequences))
	}
	sp := got.Sequences[0].Sprites[0]
	if sp.Left != 0.1 || sp.Right != 0.6 || sp.RegistrationY != 0.45 {
		t.Errorf("sprite record: got %+v", sp)
	}
	if len(got.Bitmaps) != 1 {
		t.Fatalf("bitmaps: got %d", len(got.Bitmaps))
	}
	b := got.Bitmaps[0]
	if b != want.Bitmaps[0] {
		t.Errorf("bitmap record: got %+v, want %+v", b, want.Bitmaps[0])
	}
	if string(got.PixelData) != string(want.PixelData) {
		t.Error("pixel data did not round trip")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a := Marshal(sampleTag())
	b := Marshal(sampleTag())
	if string(a) != string(b) {
		t.Error("marshal is not deterministic")
	}
}

func TestUnmarshalRejectsCorruption(t *testing.T) {
	data := Marshal(sampleTag())

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	if _, err := Unmarshal(bad); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("bad fourcc: got %v", err)
	}

	bad = append([]byte(nil), data...)
	bad[len(bad)-1] ^= 0xFF
	if _, err := Unmarshal(bad); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("flipped body byte: got %v", err)
	}

	if _, err := Unmarshal(data[:10]); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestSpriteBudgetMapping(t *testing.T) {
	cases := map[int]uint16{32: 0, 64: 1, 128: 2, 256: 3, 512: 4, 1024: 5, 48: 0}
	for budget, want := range cases {
		if got := SpriteBudgetSize(budget); got != want {
			t.Errorf("size(%d): got %d, want %d", budget, got, want)
		}
	}
	for _, budget := range []int{32, 64, 128, 256, 512, 1024} {
		if got := SpriteBudgetLength(SpriteBudgetSize(budget)); got != budget {
			t.Errorf("length(size(%d)): got %d", budget, got)
		}
	}
}

func TestBitsPerPixel(t *testing.T) {
	cases := map[DataFormat]int{
		DataFormatA8:       8,
		DataFormatP8Bump:   8,
		DataFormatA8Y8:     16,
		DataFormatR5G6B5:   16,
		DataFormatA8R8G8B8: 32,
		DataFormatDXT1:     4,
		DataFormatDXT3:     8,
		DataFormatDXT5:     8,
	}
	for f, want := range cases {
		if got := f.BitsPerPixel(); got != want {
			t.Errorf("%s: got %d, want %d", f, got, want)
		}
	}
}
