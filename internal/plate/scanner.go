// Package plate interprets a color-plate image into logical bitmaps,
// sequences and sprite placements using the reserved-color convention.
//
// The top-left pixel of the plate selects the mode: blue (0,0,255) marks
// the sheet background, magenta (255,0,255) additionally enables
// full-width sequence divider rows, and cyan (0,255,255) marks dummy
// space inside a row. Any other top-left color means the whole plate is a
// single 2D bitmap.
package plate

import (
	"errors"
	"fmt"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

var (
	// ErrInvalidPlate means the plate structure violates the
	// reserved-color convention.
	ErrInvalidPlate = errors.New("invalid color plate")

	// ErrSpriteOutsideRow means a sprite extends beyond its sequence's
	// rows.
	ErrSpriteOutsideRow = errors.New("sprite outside of its row")

	// ErrEmptyBitmap means a located bitmap has no content left after
	// trimming.
	ErrEmptyBitmap = errors.New("bitmap has no pixels")

	// ErrNonPowerOfTwo means a bitmap's dimensions are disallowed for
	// its type.
	ErrNonPowerOfTwo = errors.New("non-power-of-two bitmap")
)

// Bitmap is one scanned bitmap. For cube maps Depth is 1 and the six
// faces are stored consecutively; for 3D textures Depth counts slices.
type Bitmap struct {
	Width  int
	Height int
	Depth  int

	// MipmapCount is the number of levels past the base that the
	// processor appended to Pixels. Zero until processed.
	MipmapCount int

	RegistrationX int
	RegistrationY int

	Pixels []pixel.Pixel
}

// At reads a base-level pixel.
func (b *Bitmap) At(x, y int) pixel.Pixel {
	return b.Pixels[y*b.Width+x]
}

// Sprite is one logical sprite: a rectangle within a scanned bitmap (its
// own trimmed bitmap before packing, a sheet afterwards) plus a
// registration point in pixels.
type Sprite struct {
	BitmapIndex int

	Left   int
	Top    int
	Right  int
	Bottom int

	RegistrationX int
	RegistrationY int

	// OriginalWidth and OriginalHeight record the pre-packing size.
	OriginalWidth  int
	OriginalHeight int
}

// Sequence is a contiguous bitmap range, or a sprite list for
// sprite-typed plates.
type Sequence struct {
	FirstBitmap int
	BitmapCount int
	Sprites     []Sprite
}

// ColorPlate is the scanner output consumed by the processor, the sprite
// packer and the encoder.
type ColorPlate struct {
	Bitmaps   []*Bitmap
	Sequences []Sequence

	// The original plate is retained for embedding into the tag.
	PlateWidth  int
	PlateHeight int
	PlatePixels []pixel.Pixel
}

// Scan interprets raw top-down RGBA pixels as a color plate.
func Scan(pixels []pixel.Pixel, width, height int, typ tag.BitmapType, filthySpriteBugFix, allowNonPowerOfTwo bool) (*ColorPlate, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, fmt.Errorf("%w: %dx%d plate with %d pixels", ErrInvalidPlate, width, height, len(pixels))
	}

	plate := &ColorPlate{
		PlateWidth:  width,
		PlateHeight: height,
		PlatePixels: append([]pixel.Pixel(nil), pixels...),
	}

	key := pixels[0]
	structured := key.SameColor(pixel.Blue) || key.SameColor(pixel.Magenta) || key.SameColor(pixel.Cyan)

	if !structured {
		wholePlate(plate, pixels, width, height)
	} else if err := scanStructured(plate, pixels, width, height, typ, filthySpriteBugFix); err != nil {
		return nil, err
	}

	if err := groupVolumes(plate, typ); err != nil {
		return nil, err
	}

	if typ != tag.TypeSprites && typ != tag.TypeInterfaceBitmaps && !allowNonPowerOfTwo {
		for _, b := range plate.Bitmaps {
			if !isPowerOfTwo(b.Width) || !isPowerOfTwo(b.Height) {
				return nil, fmt.Errorf("%w: %dx%d", ErrNonPowerOfTwo, b.Width, b.Height)
			}
		}
	}

	return plate, nil
}

// wholePlate emits a single sequence holding the entire plate as one
// bitmap. No registration point search takes place.
func wholePlate(plate *ColorPlate, pixels []pixel.Pixel, width, height int) {
	plate.Bitmaps = []*Bitmap{{
		Width:         width,
		Height:        height,
		Depth:         1,
		RegistrationX: width / 2,
		RegistrationY: height / 2,
		Pixels:        append([]pixel.Pixel(nil), pixels...),
	}}
	plate.Sequences = []Sequence{{FirstBitmap: 0, BitmapCount: 1}}
}

// band is a run of plate rows belonging to one sequence.
type band struct {
	top    int
	bottom int // exclusive
}

func scanStructured(plate *ColorPlate, pixels []pixel.Pixel, width, height int, typ tag.BitmapType, filthySpriteBugFix bool) error {
	useDividers := pixels[0].SameColor(pixel.Magenta)

	if useDividers {
		hasBlue := false
		for _, p := range pixels {
			if p.SameColor(pixel.Blue) {
				hasBlue = true
				break
			}
		}
		if !hasBlue {
			return fmt.Errorf("%w: sequence dividers without a blue background key", ErrInvalidPlate)
		}
	}

	bands, err := splitBands(pixels, width, height, useDividers)
	if err != nil {
		return err
	}

	isSprites := typ == tag.TypeSprites
	for _, bd := range bands {
		boxes := locateBitmaps(pixels, width, bd, useDividers)

		seq := Sequence{FirstBitmap: len(plate.Bitmaps)}
		for _, bx := range boxes {
			if isSprites {
				sp, bm, err := buildSprite(pixels, width, bd, bx, filthySpriteBugFix)
				if err != nil {
					return err
				}
				sp.BitmapIndex = len(plate.Bitmaps)
				plate.Bitmaps = append(plate.Bitmaps, bm)
				seq.Sprites = append(seq.Sprites, *sp)
				seq.BitmapCount++
			} else {
				plate.Bitmaps = append(plate.Bitmaps, buildBitmap(pixels, width, bx))
				seq.BitmapCount++
			}
		}
		plate.Sequences = append(plate.Sequences, seq)
	}
	return nil
}

// splitBands cuts the plate into horizontal bands. With dividers enabled,
// any row containing the divider color must be a solid divider row.
func splitBands(pixels []pixel.Pixel, width, height int, useDividers bool) ([]band, error) {
	if !useDividers {
		return []band{{top: 0, bottom: height}}, nil
	}

	var bands []band
	top := -1
	for y := 0; y < height; y++ {
		divider, partial := rowDivider(pixels, width, y)
		if partial {
			return nil, fmt.Errorf("%w: row %d mixes the sequence divider with other colors", ErrInvalidPlate, y)
		}
		if divider {
			if top >= 0 {
				bands = append(bands, band{top: top, bottom: y})
				top = -1
			}
			continue
		}
		if top < 0 {
			top = y
		}
	}
	if top >= 0 {
		bands = append(bands, band{top: top, bottom: height})
	}
	return bands, nil
}

func rowDivider(pixels []pixel.Pixel, width, y int) (divider, partial bool) {
	row := pixels[y*width : (y+1)*width]
	count := 0
	for _, p := range row {
		if p.SameColor(pixel.Magenta) {
			count++
		}
	}
	return count == width, count > 0 && count < width
}

// box is a bitmap bounding rectangle in plate coordinates.
type box struct {
	left, top     int
	right, bottom int // exclusive
}

func (b box) intersects(o box) bool {
	return b.left < o.right && o.left < b.right && b.top < o.bottom && o.top < b.bottom
}

func (b box) union(o box) box {
	if o.left < b.left {
		b.left = o.left
	}
	if o.top < b.top {
		b.top = o.top
	}
	if o.right > b.right {
		b.right = o.right
	}
	if o.bottom > b.bottom {
		b.bottom = o.bottom
	}
	return b
}

// locateBitmaps finds the maximal non-background rectangles within one
// band, ordered left to right, top to bottom. Regions consisting purely
// of the dummy-space color are ignored.
func locateBitmaps(pixels []pixel.Pixel, width int, bd band, useDividers bool) []box {
	background := func(p pixel.Pixel) bool {
		if p.SameColor(pixel.Blue) {
			return true
		}
		return useDividers && p.SameColor(pixel.Magenta)
	}

	visited := make([]bool, width*(bd.bottom-bd.top))
	idx := func(x, y int) int { return (y-bd.top)*width + x }

	var boxes []box
	var dummies []bool
	for y := bd.top; y < bd.bottom; y++ {
		for x := 0; x < width; x++ {
			if visited[idx(x, y)] || background(pixels[y*width+x]) {
				continue
			}

			// Flood fill one component, tracking its bounding box and
			// whether anything besides dummy space is inside.
			bx := box{left: x, top: y, right: x + 1, bottom: y + 1}
			dummy := true
			stack := []int{y*width + x}
			visited[idx(x, y)] = true
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur%width, cur/width

				bx = bx.union(box{left: cx, top: cy, right: cx + 1, bottom: cy + 1})
				if !pixels[cur].SameColor(pixel.Cyan) {
					dummy = false
				}

				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || nx >= width || ny < bd.top || ny >= bd.bottom {
						continue
					}
					if visited[idx(nx, ny)] || background(pixels[ny*width+nx]) {
						continue
					}
					visited[idx(nx, ny)] = true
					stack = append(stack, ny*width+nx)
				}
			}
			boxes = append(boxes, bx)
			dummies = append(dummies, dummy)
		}
	}

	// Two components may share one bounding rectangle (content with
	// gaps). Merge intersecting boxes until stable; a merge with real
	// content absorbs dummy space.
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(boxes); i++ {
			for j := i + 1; j < len(boxes); j++ {
				if boxes[i].intersects(boxes[j]) {
					boxes[i] = boxes[i].union(boxes[j])
					dummies[i] = dummies[i] && dummies[j]
					boxes = append(boxes[:j], boxes[j+1:]...)
					dummies = append(dummies[:j], dummies[j+1:]...)
					changed = true
					j--
				}
			}
		}
	}

	var out []box
	for i, bx := range boxes {
		if !dummies[i] {
			out = append(out, bx)
		}
	}

	sortBoxes(out)
	return out
}

func sortBoxes(boxes []box) {
	// Insertion sort by (top, left); plates hold at most a few dozen
	// bitmaps per band.
	for i := 1; i < len(boxes); i++ {
		for j := i; j > 0; j-- {
			a, b := boxes[j-1], boxes[j]
			if a.top < b.top || (a.top == b.top && a.left <= b.left) {
				break
			}
			boxes[j-1], boxes[j] = b, a
		}
	}
}

// registration returns the bitmap's pivot relative to the box: the single
// dummy-space pixel inside it, or the integer-floored center.
func registration(pixels []pixel.Pixel, width int, bx box) (int, int) {
	cx, cy, count := 0, 0, 0
	for y := bx.top; y < bx.bottom; y++ {
		for x := bx.left; x < bx.right; x++ {
			if pixels[y*width+x].SameColor(pixel.Cyan) {
				cx, cy = x-bx.left, y-bx.top
				count++
			}
		}
	}
	if count == 1 {
		return cx, cy
	}
	return (bx.right - bx.left) / 2, (bx.bottom - bx.top) / 2
}

func buildBitmap(pixels []pixel.Pixel, width int, bx box) *Bitmap {
	w := bx.right - bx.left
	h := bx.bottom - bx.top
	b := &Bitmap{
		Width:  w,
		Height: h,
		Depth:  1,
		Pixels: make([]pixel.Pixel, 0, w*h),
	}
	b.RegistrationX, b.RegistrationY = registration(pixels, width, bx)
	for y := bx.top; y < bx.bottom; y++ {
		b.Pixels = append(b.Pixels, pixels[y*width+bx.left:y*width+bx.right]...)
	}
	return b
}

// buildSprite trims key-colored edges off the box and emits the sprite
// and its backing bitmap. With the filthy-sprite-bug-fix enabled the
// registration point is relative to the trimmed rectangle; the legacy
// behavior keeps it relative to the untrimmed one.
func buildSprite(pixels []pixel.Pixel, width int, bd band, bx box, filthySpriteBugFix bool) (*Sprite, *Bitmap, error) {
	regX, regY := registration(pixels, width, bx)

	trimmed := trimKeys(pixels, width, bx)
	if trimmed.left >= trimmed.right || trimmed.top >= trimmed.bottom {
		return nil, nil, fmt.Errorf("%w: sprite at (%d,%d)", ErrEmptyBitmap, bx.left, bx.top)
	}
	if trimmed.top < bd.top || trimmed.bottom > bd.bottom {
		return nil, nil, fmt.Errorf("%w: sprite at (%d,%d)", ErrSpriteOutsideRow, bx.left, bx.top)
	}

	if filthySpriteBugFix {
		regX -= trimmed.left - bx.left
		regY -= trimmed.top - bx.top
	}

	bm := buildBitmap(pixels, width, trimmed)
	bm.RegistrationX, bm.RegistrationY = regX, regY

	sp := &Sprite{
		Left:           0,
		Top:            0,
		Right:          bm.Width,
		Bottom:         bm.Height,
		RegistrationX:  regX,
		RegistrationY:  regY,
		OriginalWidth:  bm.Width,
		OriginalHeight: bm.Height,
	}
	return sp, bm, nil
}

// trimKeys shrinks a box while an entire edge row or column is blue or
// cyan.
func trimKeys(pixels []pixel.Pixel, width int, bx box) box {
	isKey := func(p pixel.Pixel) bool {
		return p.SameColor(pixel.Blue) || p.SameColor(pixel.Cyan)
	}
	rowKeyed := func(y int) bool {
		for x := bx.left; x < bx.right; x++ {
			if !isKey(pixels[y*width+x]) {
				return false
			}
		}
		return true
	}
	colKeyed := func(x int) bool {
		for y := bx.top; y < bx.bottom; y++ {
			if !isKey(pixels[y*width+x]) {
				return false
			}
		}
		return true
	}

	for bx.top < bx.bottom && rowKeyed(bx.top) {
		bx.top++
	}
	for bx.bottom > bx.top && rowKeyed(bx.bottom-1) {
		bx.bottom--
	}
	for bx.left < bx.right && colKeyed(bx.left) {
		bx.left++
	}
	for bx.right > bx.left && colKeyed(bx.right-1) {
		bx.right--
	}
	return bx
}

// groupVolumes folds scanned bitmaps into cube maps or 3D volumes for
// the types that store more than one face or slice per bitmap.
func groupVolumes(plate *ColorPlate, typ tag.BitmapType) error {
	switch typ {
	case tag.TypeCubeMaps:
		return groupCubeMaps(plate)
	case tag.Type3DTextures:
		return group3DTextures(plate)
	default:
		return nil
	}
}

func groupCubeMaps(plate *ColorPlate) error {
	var bitmaps []*Bitmap
	var sequences []Sequence
	for _, seq := range plate.Sequences {
		if seq.BitmapCount%6 != 0 {
			return fmt.Errorf("%w: cube map sequence has %d bitmaps, not a multiple of six", ErrInvalidPlate, seq.BitmapCount)
		}
		out := Sequence{FirstBitmap: len(bitmaps)}
		for i := 0; i < seq.BitmapCount; i += 6 {
			faces := plate.Bitmaps[seq.FirstBitmap+i : seq.FirstBitmap+i+6]
			first := faces[0]
			if first.Width != first.Height {
				return fmt.Errorf("%w: cube face is %dx%d, not square", ErrInvalidPlate, first.Width, first.Height)
			}
			cube := &Bitmap{
				Width:         first.Width,
				Height:        first.Height,
				Depth:         1,
				RegistrationX: first.Width / 2,
				RegistrationY: first.Height / 2,
				Pixels:        make([]pixel.Pixel, 0, 6*first.Width*first.Height),
			}
			for _, f := range faces {
				if f.Width != first.Width || f.Height != first.Height {
					return fmt.Errorf("%w: cube faces disagree on size (%dx%d vs %dx%d)", ErrInvalidPlate, f.Width, f.Height, first.Width, first.Height)
				}
				cube.Pixels = append(cube.Pixels, f.Pixels...)
			}
			bitmaps = append(bitmaps, cube)
			out.BitmapCount++
		}
		sequences = append(sequences, out)
	}
	plate.Bitmaps = bitmaps
	plate.Sequences = sequences
	return nil
}

func group3DTextures(plate *ColorPlate) error {
	var bitmaps []*Bitmap
	var sequences []Sequence
	for _, seq := range plate.Sequences {
		out := Sequence{FirstBitmap: len(bitmaps)}
		if seq.BitmapCount > 0 {
			slices := plate.Bitmaps[seq.FirstBitmap : seq.FirstBitmap+seq.BitmapCount]
			first := slices[0]
			volume := &Bitmap{
				Width:         first.Width,
				Height:        first.Height,
				Depth:         len(slices),
				RegistrationX: first.Width / 2,
				RegistrationY: first.Height / 2,
				Pixels:        make([]pixel.Pixel, 0, len(slices)*first.Width*first.Height),
			}
			for _, s := range slices {
				if s.Width != first.Width || s.Height != first.Height {
					return fmt.Errorf("%w: 3D slices disagree on size (%dx%d vs %dx%d)", ErrInvalidPlate, s.Width, s.Height, first.Width, first.Height)
				}
				volume.Pixels = append(volume.Pixels, s.Pixels...)
			}
			bitmaps = append(bitmaps, volume)
			out.BitmapCount = 1
		}
		sequences = append(sequences, out)
	}
	plate.Bitmaps = bitmaps
	plate.Sequences = sequences
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
