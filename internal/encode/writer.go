package encode

import (
	"fmt"

	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// Result is the encoded output of a whole color plate: one BitmapData
// record per bitmap, with strictly ascending offsets into the blob.
type Result struct {
	Records []tag.BitmapData
	Blob    []byte

	// Warnings are non-fatal diagnostics, such as auto-format
	// demotions.
	Warnings []string
}

// EncodeColorPlate selects a format for and encodes every bitmap of a
// processed plate.
func EncodeColorPlate(p *plate.ColorPlate, category tag.Format, typ tag.BitmapType, usage tag.BitmapUsage, palettize, dither bool) (*Result, error) {
	shape := shapeOf(typ)
	sequenceOf := sequenceIndex(p)

	res := &Result{}
	for i, b := range p.Bitmaps {
		sel, err := SelectFormat(b, category, typ, usage, palettize)
		if err != nil {
			return nil, err
		}
		if sel.Demoted {
			res.Warnings = append(res.Warnings,
				"auto format fell back to 32-bit: bitmap "+dims(b)+" is smaller than a DXT block")
		}

		data := EncodeBitmap(b, sel.Format, shape, dither)

		var flags uint16
		if sel.Format.IsDXT() {
			flags |= tag.DataFlagCompressed
		}

		res.Records = append(res.Records, tag.BitmapData{
			Width:         uint16(b.Width),
			Height:        uint16(b.Height),
			Depth:         uint16(b.Depth),
			Type:          shape,
			Format:        sel.Format,
			Flags:         flags,
			RegistrationX: int16(b.RegistrationX),
			RegistrationY: int16(b.RegistrationY),
			MipmapCount:   uint16(b.MipmapCount),
			SequenceIndex: uint16(sequenceOf(i)),
			PixelOffset:   uint32(len(res.Blob)),
			PixelSize:     uint32(len(data)),
		})
		res.Blob = append(res.Blob, data...)
	}
	return res, nil
}

func shapeOf(typ tag.BitmapType) tag.DataType {
	switch typ {
	case tag.Type3DTextures:
		return tag.DataType3D
	case tag.TypeCubeMaps:
		return tag.DataTypeCubeMap
	default:
		return tag.DataType2D
	}
}

// sequenceIndex maps a bitmap index to the sequence containing it.
func sequenceIndex(p *plate.ColorPlate) func(int) int {
	owner := make([]int, len(p.Bitmaps))
	for si, seq := range p.Sequences {
		for i := 0; i < seq.BitmapCount; i++ {
			if seq.FirstBitmap+i < len(owner) {
				owner[seq.FirstBitmap+i] = si
			}
		}
		for _, sp := range seq.Sprites {
			if sp.BitmapIndex < len(owner) {
				owner[sp.BitmapIndex] = si
			}
		}
	}
	return func(i int) int { return owner[i] }
}

func dims(b *plate.Bitmap) string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}
