// Package process is the mipmap and filter engine: per-bitmap
// pre-filtering, alpha biasing, bump-map preparation, sprite packing and
// mipmap chain generation, in that order.
package process

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/sprite"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// FullMipmapChain requests mipmaps all the way down to 1x1.
const FullMipmapChain = math.MaxInt16

// ScaleType selects the mipmap downsampling filter.
type ScaleType int

const (
	// ScaleLinear box-filters each 2x2 in premultiplied-alpha space.
	ScaleLinear ScaleType = iota
	// ScaleNearest picks the top-left texel of each 2x2.
	ScaleNearest
	// ScaleNearestAlpha filters color linearly but keeps nearest alpha,
	// preserving cutout masks.
	ScaleNearestAlpha
)

var scaleNames = map[ScaleType]string{
	ScaleLinear:       "linear",
	ScaleNearest:      "nearest",
	ScaleNearestAlpha: "nearest_alpha",
}

func (s ScaleType) String() string {
	if n, ok := scaleNames[s]; ok {
		return n
	}
	return fmt.Sprintf("scale(%d)", int(s))
}

// ParseScaleType parses a scale type name.
func ParseScaleType(s string) (ScaleType, error) {
	for t, name := range scaleNames {
		if s == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid mipmap scale type %q", s)
}

// Options drive one processing pass over a scanned color plate. Zero
// Sharpen, Blur and AlphaBias disable those steps; DetailFade only
// applies to detail-map usage.
type Options struct {
	Type           tag.BitmapType
	Usage          tag.BitmapUsage
	MaxMipmapCount int
	ScaleType      ScaleType
	DetailFade     float64
	Sharpen        float64
	Blur           float64
	AlphaBias      float64
	BumpHeight     float64
	Sprites        *sprite.Parameters
}

func (o Options) shape() tag.DataType {
	switch o.Type {
	case tag.Type3DTextures:
		return tag.DataType3D
	case tag.TypeCubeMaps:
		return tag.DataTypeCubeMap
	default:
		return tag.DataType2D
	}
}

// Process runs the full filter pipeline over every bitmap of the plate.
// Sprite plates are packed into sheets before mipmap generation so the
// sheets themselves carry the chain.
func Process(p *plate.ColorPlate, opts Options) error {
	shape := opts.shape()

	for _, b := range p.Bitmaps {
		preFilter(b, shape, opts.Blur, opts.Sharpen)
		applyAlphaBias(b, opts.AlphaBias)
		if opts.Usage == tag.UsageHeightMap {
			prepareBump(b, shape, opts.BumpHeight)
		}
	}

	if opts.Type == tag.TypeSprites {
		if opts.Sprites == nil {
			return fmt.Errorf("sprite plate without sprite parameters")
		}
		if err := sprite.Pack(p, *opts.Sprites); err != nil {
			return err
		}
	}

	// Interface bitmaps are sampled 1:1 and never carry mipmaps.
	maxCount := opts.MaxMipmapCount
	if opts.Type == tag.TypeInterfaceBitmaps {
		maxCount = 0
	}

	for _, b := range p.Bitmaps {
		generateMipmaps(b, shape, opts.ScaleType, maxCount)
		if opts.Usage == tag.UsageDetailMap && opts.DetailFade > 0 {
			applyDetailFade(b, shape, opts.DetailFade)
		}
	}
	return nil
}

// preFilter applies the Gaussian blur and unsharp-mask sharpen to each
// face or slice of the base level.
func preFilter(b *plate.Bitmap, shape tag.DataType, blur, sharpen float64) {
	if blur <= 0 && sharpen <= 0 {
		return
	}
	forEachSlice(b, shape, func(slice []pixel.Pixel) {
		img := sliceToNRGBA(slice, b.Width, b.Height)
		if blur > 0 {
			img = imaging.Blur(img, blur)
		}
		if sharpen > 0 {
			img = imaging.Sharpen(img, sharpen)
		}
		nrgbaToSlice(img, slice)
	})
}

// forEachSlice visits every face (cube maps) or depth slice (3D
// textures) of the base level.
func forEachSlice(b *plate.Bitmap, shape tag.DataType, fn func([]pixel.Pixel)) {
	n := b.Width * b.Height
	count := b.Depth * shape.Faces()
	for i := 0; i < count; i++ {
		fn(b.Pixels[i*n : (i+1)*n])
	}
}

func sliceToNRGBA(slice []pixel.Pixel, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, p := range slice {
		img.Pix[i*4+0] = p.Red
		img.Pix[i*4+1] = p.Green
		img.Pix[i*4+2] = p.Blue
		img.Pix[i*4+3] = p.Alpha
	}
	return img
}

func nrgbaToSlice(img *image.NRGBA, slice []pixel.Pixel) {
	for i := range slice {
		slice[i] = pixel.Pixel{
			Red:   img.Pix[i*4+0],
			Green: img.Pix[i*4+1],
			Blue:  img.Pix[i*4+2],
			Alpha: img.Pix[i*4+3],
		}
	}
}

// applyAlphaBias shifts every alpha by bias*255, clamped to [0, 255].
func applyAlphaBias(b *plate.Bitmap, bias float64) {
	if bias == 0 {
		return
	}
	delta := int32(math.Round(bias * 255))
	for i := range b.Pixels {
		a := int32(b.Pixels[i].Alpha) + delta
		if a < 0 {
			a = 0
		} else if a > 255 {
			a = 255
		}
		b.Pixels[i].Alpha = uint8(a)
	}
}

// generateMipmaps appends the mip chain to the bitmap's pixel store. The
// chain stops at 1x1 (and depth 1 for 3D textures) or at the cap.
func generateMipmaps(b *plate.Bitmap, shape tag.DataType, scale ScaleType, maxCount int) {
	faces := shape.Faces()
	w, h, d := b.Width, b.Height, b.Depth
	prev := b.Pixels[:w*h*d*faces]

	count := 0
	for count < maxCount {
		done := w == 1 && h == 1
		if shape == tag.DataType3D {
			done = done && d == 1
		}
		if done {
			break
		}

		nw, nh := halveDim(w), halveDim(h)
		nd := d
		if shape == tag.DataType3D {
			nd = halveDim(d)
		}

		level := make([]pixel.Pixel, 0, nw*nh*nd*faces)
		if shape == tag.DataType3D {
			level = append(level, downsample3D(prev, w, h, d, scale)...)
		} else {
			sliceLen := w * h
			for f := 0; f < d*faces; f++ {
				level = append(level, downsample2D(prev[f*sliceLen:(f+1)*sliceLen], w, h, scale)...)
			}
		}

		b.Pixels = append(b.Pixels, level...)
		prev = level
		w, h, d = nw, nh, nd
		count++
	}
	b.MipmapCount = count
}

func halveDim(n int) int {
	if n <= 1 {
		return 1
	}
	return n / 2
}

func downsample2D(src []pixel.Pixel, sw, sh int, scale ScaleType) []pixel.Pixel {
	dw, dh := halveDim(sw), halveDim(sh)
	dst := make([]pixel.Pixel, dw*dh)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			dst[y*dw+x] = filterBox(src, sw, sh, x*2, y*2, scale)
		}
	}
	return dst
}

// filterBox reduces the up-to-2x2 sample group at (sx, sy).
func filterBox(src []pixel.Pixel, sw, sh, sx, sy int, scale ScaleType) pixel.Pixel {
	topLeft := src[sy*sw+sx]
	if scale == ScaleNearest {
		return topLeft
	}

	var sumRA, sumGA, sumBA, sumA uint32
	var sumR, sumG, sumB uint32
	n := uint32(0)
	for dy := 0; dy < 2; dy++ {
		y := sy + dy
		if y >= sh {
			continue
		}
		for dx := 0; dx < 2; dx++ {
			x := sx + dx
			if x >= sw {
				continue
			}
			p := src[y*sw+x]
			a := uint32(p.Alpha)
			sumRA += uint32(p.Red) * a
			sumGA += uint32(p.Green) * a
			sumBA += uint32(p.Blue) * a
			sumA += a
			sumR += uint32(p.Red)
			sumG += uint32(p.Green)
			sumB += uint32(p.Blue)
			n++
		}
	}

	var out pixel.Pixel
	if sumA > 0 {
		// Average in premultiplied space, then unpremultiply.
		out.Red = uint8((sumRA + sumA/2) / sumA)
		out.Green = uint8((sumGA + sumA/2) / sumA)
		out.Blue = uint8((sumBA + sumA/2) / sumA)
	} else {
		out.Red = uint8((sumR + n/2) / n)
		out.Green = uint8((sumG + n/2) / n)
		out.Blue = uint8((sumB + n/2) / n)
	}
	if scale == ScaleNearestAlpha {
		out.Alpha = topLeft.Alpha
	} else {
		out.Alpha = uint8((sumA + n/2) / n)
	}
	return out
}

// downsample3D reduces a volume with a 2x2x2 box (or nearest) filter.
func downsample3D(src []pixel.Pixel, sw, sh, sd int, scale ScaleType) []pixel.Pixel {
	dw, dh, dd := halveDim(sw), halveDim(sh), halveDim(sd)
	dst := make([]pixel.Pixel, 0, dw*dh*dd)
	sliceLen := sw * sh
	for z := 0; z < dd; z++ {
		front := src[(z*2)*sliceLen : (z*2+1)*sliceLen]
		back := front
		if z*2+1 < sd {
			back = src[(z*2+1)*sliceLen : (z*2+2)*sliceLen]
		}
		for y := 0; y < dh; y++ {
			for x := 0; x < dw; x++ {
				if scale == ScaleNearest {
					dst = append(dst, front[(y*2)*sw+x*2])
					continue
				}
				a := filterBox(front, sw, sh, x*2, y*2, scale)
				b := filterBox(back, sw, sh, x*2, y*2, scale)
				dst = append(dst, averagePair(a, b, scale))
			}
		}
	}
	return dst
}

func averagePair(a, b pixel.Pixel, scale ScaleType) pixel.Pixel {
	out := pixel.Pixel{
		Red:   uint8((uint32(a.Red) + uint32(b.Red) + 1) / 2),
		Green: uint8((uint32(a.Green) + uint32(b.Green) + 1) / 2),
		Blue:  uint8((uint32(a.Blue) + uint32(b.Blue) + 1) / 2),
		Alpha: uint8((uint32(a.Alpha) + uint32(b.Alpha) + 1) / 2),
	}
	if scale == ScaleNearestAlpha {
		out.Alpha = a.Alpha
	}
	return out
}

// applyDetailFade interpolates mip level k toward neutral grey by
// min(1, k*fade).
func applyDetailFade(b *plate.Bitmap, shape tag.DataType, fade float64) {
	for k, level := range b.Levels(shape) {
		if k == 0 {
			continue
		}
		f := math.Min(1, float64(k)*fade)
		for i := range level.Pixels {
			level.Pixels[i] = fadeToGrey(level.Pixels[i], f)
		}
	}
}

func fadeToGrey(p pixel.Pixel, f float64) pixel.Pixel {
	mix := func(c uint8) uint8 {
		return uint8(math.Round(float64(c) + (128-float64(c))*f))
	}
	return pixel.Pixel{
		Blue:  mix(p.Blue),
		Green: mix(p.Green),
		Red:   mix(p.Red),
		Alpha: mix(p.Alpha),
	}
}
