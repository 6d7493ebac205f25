package loader

import (
	"fmt"
	"image"
	"image/color"
)

// decodeTGA handles the TGA variants the pipeline accepts: uncompressed
// true-color (type 2) and RLE true-color (type 10), 24 or 32 bits.
func decodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("tga: header truncated")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("tga: color-mapped images not supported")
	}
	if imageType != 2 && imageType != 10 {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported depth %d", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("tga: data truncated")
	}
	pixelData := data[offset:]

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bytesPerPixel := bpp / 8
	topToBottom := descriptor&0x20 != 0

	setRow := func(y int) int {
		if topToBottom {
			return y
		}
		return height - 1 - y
	}

	if imageType == 2 {
		if len(pixelData) < width*height*bytesPerPixel {
			return nil, fmt.Errorf("tga: pixel data truncated")
		}
		for y := 0; y < height; y++ {
			dy := setRow(y)
			for x := 0; x < width; x++ {
				i := (y*width + x) * bytesPerPixel
				img.SetNRGBA(x, dy, tgaColor(pixelData[i:], bytesPerPixel))
			}
		}
		return img, nil
	}

	// RLE packets: a count byte with the high bit set repeats one
	// pixel; cleared, it introduces that many raw pixels.
	pos := 0
	for i := 0; i < width*height; {
		if pos >= len(pixelData) {
			return nil, fmt.Errorf("tga: rle data truncated")
		}
		packet := pixelData[pos]
		pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if pos+bytesPerPixel > len(pixelData) {
				return nil, fmt.Errorf("tga: rle data truncated")
			}
			c := tgaColor(pixelData[pos:], bytesPerPixel)
			pos += bytesPerPixel
			for j := 0; j < count && i < width*height; j++ {
				img.SetNRGBA(i%width, setRow(i/width), c)
				i++
			}
		} else {
			for j := 0; j < count && i < width*height; j++ {
				if pos+bytesPerPixel > len(pixelData) {
					return nil, fmt.Errorf("tga: rle data truncated")
				}
				img.SetNRGBA(i%width, setRow(i/width), tgaColor(pixelData[pos:], bytesPerPixel))
				pos += bytesPerPixel
				i++
			}
		}
	}
	return img, nil
}

func tgaColor(b []byte, bytesPerPixel int) color.NRGBA {
	c := color.NRGBA{B: b[0], G: b[1], R: b[2], A: 0xFF}
	if bytesPerPixel == 4 {
		c.A = b[3]
	}
	return c
}
