package plate

import (
	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// Level is one stored mip level of a bitmap. For cube maps Pixels holds
// the six faces consecutively; for 3D textures it holds Depth slices.
type Level struct {
	Width  int
	Height int
	Depth  int
	Pixels []pixel.Pixel
}

// Levels slices the bitmap's pixel store into its mip levels for the
// given shape. Level k has dimensions max(1, base>>k); 3D textures halve
// depth along with width and height.
func (b *Bitmap) Levels(shape tag.DataType) []Level {
	faces := shape.Faces()
	w, h, d := b.Width, b.Height, b.Depth

	levels := make([]Level, 0, b.MipmapCount+1)
	offset := 0
	for k := 0; k <= b.MipmapCount; k++ {
		n := w * h * d * faces
		levels = append(levels, Level{
			Width:  w,
			Height: h,
			Depth:  d,
			Pixels: b.Pixels[offset : offset+n],
		})
		offset += n

		w = halve(w)
		h = halve(h)
		if shape == tag.DataType3D {
			d = halve(d)
		}
	}
	return levels
}

func halve(n int) int {
	if n <= 1 {
		return 1
	}
	return n / 2
}
