package tag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidTag means the file is not a readable bitmap tag.
var ErrInvalidTag = errors.New("invalid bitmap tag")

// cursor walks a byte slice, remembering the first out-of-bounds read.
type cursor struct {
	data []byte
	off  int
	err  error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if c.off+n > len(c.data) {
		c.err = fmt.Errorf("%w: truncated at offset %d", ErrInvalidTag, c.off)
		return nil
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *cursor) i16() int16 {
	return int16(c.u16())
}

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *cursor) f32() float32 {
	return math.Float32frombits(c.u32())
}

// Unmarshal parses a serialized bitmap tag, verifying the fourcc,
// version and body checksum.
func Unmarshal(data []byte) (*Tag, error) {
	c := &cursor{data: data}

	fourcc := c.take(4)
	if c.err != nil {
		return nil, c.err
	}
	if [4]byte(fourcc) != FourCC {
		return nil, fmt.Errorf("%w: bad fourcc %q", ErrInvalidTag, fourcc)
	}
	if v := c.u32(); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTag, v)
	}
	checksum := c.u64()
	bodyLen := int(c.u32())
	body := c.take(bodyLen)
	if c.err != nil {
		return nil, c.err
	}
	if got := xxhash.Sum64(body); got != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidTag)
	}

	c = &cursor{data: body}
	t := &Tag{}
	t.Type = BitmapType(c.u16())
	t.Format = Format(c.u16())
	t.Usage = BitmapUsage(c.u16())
	t.Flags = c.u16()
	t.DetailFade = c.f32()
	t.Sharpen = c.f32()
	t.BumpHeight = c.f32()
	t.SpriteBudgetSize = c.u16()
	t.SpriteBudgetCount = c.u16()
	t.ColorPlateWidth = c.u16()
	t.ColorPlateHeight = c.u16()
	t.CompressedColorPlate = append([]byte(nil), c.take(int(c.u32()))...)
	pixelDataSize := int(c.u32())
	t.BlurFilterSize = c.f32()
	t.AlphaBias = c.f32()
	t.MipmapCount = c.u16()
	t.SpriteUsage = SpriteUsage(c.u16())
	t.SpriteSpacing = c.u16()
	sequenceCount := int(c.u16())
	bitmapCount := int(c.u16())
	if c.err != nil {
		return nil, c.err
	}

	for i := 0; i < sequenceCount; i++ {
		seq := Sequence{
			FirstBitmapIndex: c.u16(),
			BitmapCount:      c.u16(),
		}
		spriteCount := int(c.u16())
		if c.err != nil {
			return nil, c.err
		}
		for j := 0; j < spriteCount; j++ {
			seq.Sprites = append(seq.Sprites, SpriteRecord{
				BitmapIndex:   c.u16(),
				Left:          c.f32(),
				Right:         c.f32(),
				Top:           c.f32(),
				Bottom:        c.f32(),
				RegistrationX: c.f32(),
				RegistrationY: c.f32(),
			})
		}
		t.Sequences = append(t.Sequences, seq)
	}

	for i := 0; i < bitmapCount; i++ {
		b := BitmapData{
			Width:         c.u16(),
			Height:        c.u16(),
			Depth:         c.u16(),
			Type:          DataType(c.u16()),
			Format:        DataFormat(c.u16()),
			Flags:         c.u16(),
			RegistrationX: c.i16(),
			RegistrationY: c.i16(),
			MipmapCount:   c.u16(),
			SequenceIndex: c.u16(),
			PixelOffset:   c.u32(),
			PixelSize:     c.u32(),
		}
		c.u32() // runtime pixel pointer, zero on disk
		t.Bitmaps = append(t.Bitmaps, b)
	}

	t.PixelData = append([]byte(nil), c.take(pixelDataSize)...)
	if c.err != nil {
		return nil, c.err
	}
	return t, nil
}

// ReadFile loads and parses a tag file.
func ReadFile(path string) (*Tag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag: %w", err)
	}
	t, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}
