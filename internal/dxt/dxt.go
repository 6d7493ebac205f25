// Package dxt implements the block compression side of the DXT1/3/5
// codecs: each 4x4 texel block becomes 8 bytes (DXT1) or 16 bytes
// (DXT3/5). Images whose dimensions are not multiples of four are padded
// by clamping to the edge texels.
package dxt

import (
	"encoding/binary"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
)

// BlockEdge is the texel edge length of one compressed block.
const BlockEdge = 4

const texelsPerBlock = BlockEdge * BlockEdge

// Block is a 4x4 texel group in row-major order.
type Block [texelsPerBlock]pixel.Pixel

// ExtractBlock reads the block at block coordinates (bx, by), clamping
// reads past the image edge to the nearest texel.
func ExtractBlock(pixels []pixel.Pixel, width, height, bx, by int) Block {
	var blk Block
	for py := 0; py < BlockEdge; py++ {
		y := by*BlockEdge + py
		if y >= height {
			y = height - 1
		}
		for px := 0; px < BlockEdge; px++ {
			x := bx*BlockEdge + px
			if x >= width {
				x = width - 1
			}
			blk[py*BlockEdge+px] = pixels[y*width+x]
		}
	}
	return blk
}

// EncodeDXT1 compresses a whole image, 8 bytes per block, blocks
// row-major. Blocks containing a texel with alpha below 128 use the
// three-color transparent mode.
func EncodeDXT1(pixels []pixel.Pixel, width, height int) []byte {
	return encodeBlocks(pixels, width, height, 8, func(out []byte, blk Block) {
		encodeDXT1Block(out, blk)
	})
}

// EncodeDXT3 compresses a whole image with 4-bit explicit alpha,
// 16 bytes per block.
func EncodeDXT3(pixels []pixel.Pixel, width, height int) []byte {
	return encodeBlocks(pixels, width, height, 16, func(out []byte, blk Block) {
		encodeAlphaDXT3(out[:8], blk)
		encodeColorBlock(out[8:], blk, false)
	})
}

// EncodeDXT5 compresses a whole image with interpolated alpha,
// 16 bytes per block.
func EncodeDXT5(pixels []pixel.Pixel, width, height int) []byte {
	return encodeBlocks(pixels, width, height, 16, func(out []byte, blk Block) {
		encodeAlphaDXT5(out[:8], blk)
		encodeColorBlock(out[8:], blk, false)
	})
}

func encodeBlocks(pixels []pixel.Pixel, width, height, blockBytes int, encode func([]byte, Block)) []byte {
	bw := (width + BlockEdge - 1) / BlockEdge
	bh := (height + BlockEdge - 1) / BlockEdge
	if bw == 0 {
		bw = 1
	}
	if bh == 0 {
		bh = 1
	}

	out := make([]byte, bw*bh*blockBytes)
	offset := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			encode(out[offset:offset+blockBytes], ExtractBlock(pixels, width, height, bx, by))
			offset += blockBytes
		}
	}
	return out
}

func encodeDXT1Block(out []byte, blk Block) {
	transparent := false
	for _, p := range blk {
		if p.Alpha < 128 {
			transparent = true
			break
		}
	}
	encodeColorBlock(out, blk, transparent)
}

// encodeColorBlock writes an 8-byte color block. The endpoints come from
// the RGB bounding box of the contributing texels; c0 > c1 selects the
// four-color mode, c0 <= c1 the three-color mode with index 3 meaning
// transparent.
func encodeColorBlock(out []byte, blk Block, transparent bool) {
	minP, maxP, any := boundingBox(blk, transparent)
	if !any {
		// Every texel is transparent.
		binary.LittleEndian.PutUint16(out[0:], 0)
		binary.LittleEndian.PutUint16(out[2:], 0)
		binary.LittleEndian.PutUint32(out[4:], 0xFFFFFFFF)
		return
	}

	c0 := maxP.Pack16(0, 5, 6, 5)
	c1 := minP.Pack16(0, 5, 6, 5)
	if transparent {
		if c0 > c1 {
			c0, c1 = c1, c0
		}
	} else if c0 < c1 {
		c0, c1 = c1, c0
	}

	palette := colorPalette(c0, c1, transparent)
	paletteLen := 4
	if transparent {
		paletteLen = 3
	}

	var indices uint32
	for i, p := range blk {
		var idx uint32
		if transparent && p.Alpha < 128 {
			idx = 3
		} else {
			idx = nearestColor(p, palette[:paletteLen])
		}
		indices |= idx << (2 * uint(i))
	}

	binary.LittleEndian.PutUint16(out[0:], c0)
	binary.LittleEndian.PutUint16(out[2:], c1)
	binary.LittleEndian.PutUint32(out[4:], indices)
}

func boundingBox(blk Block, transparent bool) (minP, maxP pixel.Pixel, any bool) {
	minP = pixel.Pixel{Red: 0xFF, Green: 0xFF, Blue: 0xFF}
	for _, p := range blk {
		if transparent && p.Alpha < 128 {
			continue
		}
		any = true
		minP.Red = min8(minP.Red, p.Red)
		minP.Green = min8(minP.Green, p.Green)
		minP.Blue = min8(minP.Blue, p.Blue)
		maxP.Red = max8(maxP.Red, p.Red)
		maxP.Green = max8(maxP.Green, p.Green)
		maxP.Blue = max8(maxP.Blue, p.Blue)
	}
	return minP, maxP, any
}

func colorPalette(c0, c1 uint16, transparent bool) [4]pixel.Pixel {
	p0 := pixel.Unpack16(c0, 0, 5, 6, 5)
	p1 := pixel.Unpack16(c1, 0, 5, 6, 5)
	var pal [4]pixel.Pixel
	pal[0] = p0
	pal[1] = p1
	if transparent {
		pal[2] = lerpPixel(p0, p1, 1, 2)
		pal[3] = pixel.Pixel{}
	} else {
		pal[2] = lerpPixel(p0, p1, 1, 3)
		pal[3] = lerpPixel(p0, p1, 2, 3)
	}
	return pal
}

// lerpPixel mixes a toward b by num/den per channel.
func lerpPixel(a, b pixel.Pixel, num, den uint32) pixel.Pixel {
	mix := func(x, y uint8) uint8 {
		return uint8((uint32(x)*(den-num) + uint32(y)*num) / den)
	}
	return pixel.Pixel{
		Blue:  mix(a.Blue, b.Blue),
		Green: mix(a.Green, b.Green),
		Red:   mix(a.Red, b.Red),
		Alpha: 0xFF,
	}
}

func nearestColor(p pixel.Pixel, palette []pixel.Pixel) uint32 {
	best := uint32(0)
	bestDist := int64(1) << 62
	for i, e := range palette {
		dr := int64(p.Red) - int64(e.Red)
		dg := int64(p.Green) - int64(e.Green)
		db := int64(p.Blue) - int64(e.Blue)
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = uint32(i)
		}
	}
	return best
}

// encodeAlphaDXT3 writes 16 explicit 4-bit alpha values, two texels per
// byte, low nibble first.
func encodeAlphaDXT3(out []byte, blk Block) {
	for i := 0; i < texelsPerBlock; i += 2 {
		lo := blk[i].Alpha >> 4
		hi := blk[i+1].Alpha >> 4
		out[i/2] = hi<<4 | lo
	}
}

// encodeAlphaDXT5 writes two alpha endpoints and 16 three-bit ramp
// indices packed little-endian over six bytes.
func encodeAlphaDXT5(out []byte, blk Block) {
	a0, a1 := blk[0].Alpha, blk[0].Alpha
	for _, p := range blk[1:] {
		a0 = max8(a0, p.Alpha)
		a1 = min8(a1, p.Alpha)
	}

	ramp := alphaRamp(a0, a1)
	var bits uint64
	for i, p := range blk {
		bits |= uint64(nearestAlpha(p.Alpha, ramp)) << (3 * uint(i))
	}

	out[0] = a0
	out[1] = a1
	for i := 0; i < 6; i++ {
		out[2+i] = byte(bits >> (8 * uint(i)))
	}
}

func alphaRamp(a0, a1 uint8) [8]uint8 {
	var ramp [8]uint8
	ramp[0] = a0
	ramp[1] = a1
	if a0 > a1 {
		for i := 2; i < 8; i++ {
			ramp[i] = uint8(((8-uint32(i))*uint32(a0) + (uint32(i)-1)*uint32(a1)) / 7)
		}
	} else {
		for i := 2; i < 6; i++ {
			ramp[i] = uint8(((6-uint32(i))*uint32(a0) + (uint32(i)-1)*uint32(a1)) / 5)
		}
		ramp[6] = 0
		ramp[7] = 0xFF
	}
	return ramp
}

func nearestAlpha(a uint8, ramp [8]uint8) uint32 {
	best := uint32(0)
	bestDist := int32(1) << 30
	for i, r := range ramp {
		d := int32(a) - int32(r)
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			bestDist = d
			best = uint32(i)
		}
	}
	return best
}

func min8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

func max8(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}
