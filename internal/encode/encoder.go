// Package encode selects concrete pixel formats and packs processed
// bitmaps into the tag's pixel blob.
package encode

import (
	"errors"
	"fmt"

	"github.com/AnyUserName/bitmapc-cli/internal/dxt"
	"github.com/AnyUserName/bitmapc-cli/internal/p8"
	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// ErrUnsupportedFormat means the requested format cannot represent the
// bitmap, typically a DXT request for a bitmap smaller than one block.
var ErrUnsupportedFormat = errors.New("unsupported pixel format")

type alphaPresence int

const (
	alphaNone alphaPresence = iota
	alphaOneBit
	alphaMultiBit
)

// characteristics summarize a bitmap's channels across every level.
type characteristics struct {
	alpha           alphaPresence
	monochrome      bool
	allBlack        bool
	lumaEqualsAlpha bool
}

func characterize(pixels []pixel.Pixel) characteristics {
	c := characteristics{monochrome: true, allBlack: true, lumaEqualsAlpha: true}
	for _, p := range pixels {
		if p.Alpha == 0x00 && c.alpha == alphaNone {
			c.alpha = alphaOneBit
		} else if p.Alpha != 0x00 && p.Alpha != 0xFF {
			c.alpha = alphaMultiBit
		}
		if p.Red != p.Green || p.Green != p.Blue {
			c.monochrome = false
		}
		if p.Red != 0 || p.Green != 0 || p.Blue != 0 {
			c.allBlack = false
		}
		if p.Luminance() != p.Alpha {
			c.lumaEqualsAlpha = false
		}
	}
	return c
}

// Selection is the outcome of format selection for one bitmap.
type Selection struct {
	Format tag.DataFormat

	// Demoted is set when a DXT pick fell back to 32-bit because the
	// base level is smaller than one block.
	Demoted bool
}

// SelectFormat picks the concrete data format for one bitmap.
// FormatAuto follows usage and alpha characteristics; an explicit
// category is refined per bitmap by the same analysis.
func SelectFormat(b *plate.Bitmap, category tag.Format, typ tag.BitmapType, usage tag.BitmapUsage, palettize bool) (Selection, error) {
	if usage == tag.UsageHeightMap {
		if palettize {
			return Selection{Format: tag.DataFormatP8Bump}, nil
		}
		if category == tag.FormatAuto {
			return Selection{Format: tag.DataFormatA8R8G8B8}, nil
		}
	}

	if category == tag.FormatAuto {
		return autoSelect(b, typ), nil
	}

	f := refineFormat(category, b.Pixels)
	if f.IsDXT() && (b.Width < dxt.BlockEdge || b.Height < dxt.BlockEdge) {
		return Selection{}, fmt.Errorf("%w: %s needs at least %dx%d, bitmap is %dx%d",
			ErrUnsupportedFormat, f, dxt.BlockEdge, dxt.BlockEdge, b.Width, b.Height)
	}
	return Selection{Format: f}, nil
}

func autoSelect(b *plate.Bitmap, typ tag.BitmapType) Selection {
	c := characterize(b.Pixels)

	if c.monochrome {
		switch {
		case c.alpha == alphaNone:
			return Selection{Format: tag.DataFormatY8}
		case c.allBlack:
			return Selection{Format: tag.DataFormatA8}
		case c.lumaEqualsAlpha:
			return Selection{Format: tag.DataFormatAY8}
		default:
			return Selection{Format: tag.DataFormatA8Y8}
		}
	}

	var f tag.DataFormat
	switch c.alpha {
	case alphaMultiBit:
		if typ == tag.TypeSprites || typ == tag.TypeInterfaceBitmaps {
			f = tag.DataFormatDXT3
		} else {
			f = tag.DataFormatA8R8G8B8
		}
	default:
		f = tag.DataFormatDXT1
	}

	if f.IsDXT() && (b.Width < dxt.BlockEdge || b.Height < dxt.BlockEdge) {
		return Selection{Format: tag.DataFormatA8R8G8B8, Demoted: true}
	}
	return Selection{Format: f}
}

// refineFormat narrows an explicit category to a concrete format by the
// content's alpha: dxt3 and dxt5 fall to DXT1 only for fully opaque
// content, 16-bit and 32-bit pick the alpha width the content uses, and
// monochrome picks its channels from the alpha and luminance tests.
func refineFormat(category tag.Format, pixels []pixel.Pixel) tag.DataFormat {
	if category == tag.FormatDXT1 {
		return tag.DataFormatDXT1
	}

	c := characterize(pixels)
	switch category {
	case tag.FormatDXT3:
		if c.alpha == alphaNone {
			return tag.DataFormatDXT1
		}
		return tag.DataFormatDXT3
	case tag.FormatDXT5:
		if c.alpha == alphaNone {
			return tag.DataFormatDXT1
		}
		return tag.DataFormatDXT5
	case tag.Format16Bit:
		switch c.alpha {
		case alphaMultiBit:
			return tag.DataFormatA4R4G4B4
		case alphaOneBit:
			return tag.DataFormatA1R5G5B5
		default:
			return tag.DataFormatR5G6B5
		}
	case tag.Format32Bit:
		if c.alpha == alphaNone {
			return tag.DataFormatX8R8G8B8
		}
		return tag.DataFormatA8R8G8B8
	default: // monochrome
		switch {
		case c.alpha == alphaNone:
			return tag.DataFormatY8
		case c.allBlack:
			return tag.DataFormatA8
		case c.lumaEqualsAlpha:
			return tag.DataFormatAY8
		default:
			return tag.DataFormatA8Y8
		}
	}
}

// DataSize returns the byte size of one encoded slice. DXT slices round
// up to the 4x4 block grid.
func DataSize(format tag.DataFormat, width, height int) int {
	if format.IsDXT() {
		width = blockRound(width)
		height = blockRound(height)
	}
	return width * height * format.BitsPerPixel() / 8
}

func blockRound(n int) int {
	if n < dxt.BlockEdge {
		return dxt.BlockEdge
	}
	return (n + dxt.BlockEdge - 1) / dxt.BlockEdge * dxt.BlockEdge
}

// BitmapSize totals every retained level of a bitmap.
func BitmapSize(b *plate.Bitmap, format tag.DataFormat, shape tag.DataType) int {
	total := 0
	for _, lvl := range b.Levels(shape) {
		total += DataSize(format, lvl.Width, lvl.Height) * lvl.Depth * shape.Faces()
	}
	return total
}

// EncodeBitmap packs every level of a bitmap, level by level, faces and
// slices in storage order.
func EncodeBitmap(b *plate.Bitmap, format tag.DataFormat, shape tag.DataType, dither bool) []byte {
	out := make([]byte, 0, BitmapSize(b, format, shape))
	for _, lvl := range b.Levels(shape) {
		sliceLen := lvl.Width * lvl.Height
		for f := 0; f < lvl.Depth*shape.Faces(); f++ {
			slice := lvl.Pixels[f*sliceLen : (f+1)*sliceLen]
			out = append(out, encodeSlice(slice, lvl.Width, lvl.Height, format, dither)...)
		}
	}
	return out
}

func encodeSlice(slice []pixel.Pixel, w, h int, format tag.DataFormat, dither bool) []byte {
	switch format {
	case tag.DataFormatDXT1:
		return dxt.EncodeDXT1(slice, w, h)
	case tag.DataFormatDXT3:
		return dxt.EncodeDXT3(slice, w, h)
	case tag.DataFormatDXT5:
		return dxt.EncodeDXT5(slice, w, h)

	case tag.DataFormatA8R8G8B8, tag.DataFormatX8R8G8B8:
		out := make([]byte, len(slice)*4)
		for i, p := range slice {
			if format == tag.DataFormatX8R8G8B8 {
				p.Alpha = 0xFF
			}
			out[i*4+0] = p.Blue
			out[i*4+1] = p.Green
			out[i*4+2] = p.Red
			out[i*4+3] = p.Alpha
		}
		return out

	case tag.DataFormatA1R5G5B5:
		return encode16(slice, w, h, 1, 5, 5, 5, dither)
	case tag.DataFormatR5G6B5:
		return encode16(slice, w, h, 0, 5, 6, 5, dither)
	case tag.DataFormatA4R4G4B4:
		return encode16(slice, w, h, 4, 4, 4, 4, dither)

	case tag.DataFormatA8, tag.DataFormatAY8:
		out := make([]byte, len(slice))
		for i, p := range slice {
			out[i] = p.Alpha
		}
		return out
	case tag.DataFormatY8:
		out := make([]byte, len(slice))
		for i, p := range slice {
			out[i] = p.Luminance()
		}
		return out
	case tag.DataFormatA8Y8:
		out := make([]byte, len(slice)*2)
		for i, p := range slice {
			v := p.A8Y8()
			out[i*2+0] = byte(v)
			out[i*2+1] = byte(v >> 8)
		}
		return out

	case tag.DataFormatP8Bump:
		out := make([]byte, len(slice))
		for i, p := range slice {
			out[i] = p8.NearestIndex(p)
		}
		return out
	}
	return nil
}

// bayer4 is the ordered-dither threshold matrix for 16-bit encoding.
var bayer4 = [4][4]int{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// encode16 packs to a little-endian 16-bit format, optionally applying
// ordered 4x4 Bayer dithering. The working pixels are rewritten to their
// quantized values so later consumers observe what was stored.
func encode16(slice []pixel.Pixel, w, h int, a, r, g, b uint, dither bool) []byte {
	out := make([]byte, len(slice)*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			p := slice[i]
			if dither {
				p = ditherPixel(p, x, y, a, r, g, b)
			}
			v := p.Pack16(a, r, g, b)
			slice[i] = pixel.Unpack16(v, a, r, g, b)
			out[i*2+0] = byte(v)
			out[i*2+1] = byte(v >> 8)
		}
	}
	return out
}

func ditherPixel(p pixel.Pixel, x, y int, a, r, g, b uint) pixel.Pixel {
	threshold := (float64(bayer4[y%4][x%4])+0.5)/16 - 0.5
	adjust := func(c uint8, bits uint) uint8 {
		if bits == 0 || bits >= 8 {
			return c
		}
		step := 255 / float64(uint32(1)<<bits-1)
		v := float64(c) + threshold*step
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	p.Alpha = adjust(p.Alpha, a)
	p.Red = adjust(p.Red, r)
	p.Green = adjust(p.Green, g)
	p.Blue = adjust(p.Blue, b)
	return p
}
