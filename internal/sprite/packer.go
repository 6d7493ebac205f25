// Package sprite packs logical sprites into sheets. Sprites are placed
// largest-area first onto shelves; the gutter around every sprite is
// filled with the blend identity of the sprite usage so bilinear
// sampling past a sprite edge stays neutral.
package sprite

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// ErrBudgetExceeded means the sprites did not fit within the configured
// sheet budget.
var ErrBudgetExceeded = errors.New("sprites exceed the sheet budget")

// Parameters configure one packing run.
type Parameters struct {
	// Budget is the maximum sheet edge length: 32, 64, 128, 256, 512
	// or 1024.
	Budget int

	// BudgetCount caps the number of sheets; zero means unlimited.
	BudgetCount int

	Usage   tag.SpriteUsage
	Spacing int

	// ForceSquare keeps every sheet at Budget x Budget instead of
	// shrinking the height to the smallest power of two that holds the
	// used extent.
	ForceSquare bool
}

// NeutralColor returns the fill color that acts as the identity for the
// sprite usage's blend mode.
func NeutralColor(usage tag.SpriteUsage) pixel.Pixel {
	switch usage {
	case tag.SpriteUsageMultiplyMin:
		return pixel.Pixel{Blue: 0xFF, Green: 0xFF, Red: 0xFF, Alpha: 0xFF}
	case tag.SpriteUsageDoubleMultiply:
		return pixel.Pixel{Blue: 0x80, Green: 0x80, Red: 0x80, Alpha: 0xFF}
	default:
		return pixel.Pixel{}
	}
}

// placement tracks where one sprite landed.
type placement struct {
	seq, idx int // sequence and sprite position within it
	bm       *plate.Bitmap

	sheet int
	x, y  int // reserved area origin, gutter included
}

type shelf struct {
	y, height, xUsed int
}

type sheet struct {
	shelves []shelf
	nextY   int
}

// Pack replaces the plate's sprite bitmaps with packed sheets and
// rewrites every sprite's rectangle, registration point and bitmap index
// to sheet coordinates.
func Pack(p *plate.ColorPlate, params Parameters) error {
	var placements []*placement
	for si := range p.Sequences {
		for i := range p.Sequences[si].Sprites {
			sp := &p.Sequences[si].Sprites[i]
			placements = append(placements, &placement{
				seq: si,
				idx: i,
				bm:  p.Bitmaps[sp.BitmapIndex],
			})
		}
	}

	// Largest area first; ties keep plate order for determinism.
	sort.SliceStable(placements, func(i, j int) bool {
		a, b := placements[i].bm, placements[j].bm
		return a.Width*a.Height > b.Width*b.Height
	})

	var sheets []*sheet
	for _, pl := range placements {
		rw := pl.bm.Width + 2*params.Spacing
		rh := pl.bm.Height + 2*params.Spacing
		if rw > params.Budget || rh > params.Budget {
			return fmt.Errorf("%w: sprite %dx%d with spacing %d does not fit a %dx%d sheet",
				ErrBudgetExceeded, pl.bm.Width, pl.bm.Height, params.Spacing, params.Budget, params.Budget)
		}

		if !placeOnExisting(sheets, pl, rw, rh, params.Budget) {
			if params.BudgetCount > 0 && len(sheets) >= params.BudgetCount {
				return fmt.Errorf("%w: more than %d sheets of %dx%d needed",
					ErrBudgetExceeded, params.BudgetCount, params.Budget, params.Budget)
			}
			s := &sheet{}
			sheets = append(sheets, s)
			pl.sheet = len(sheets) - 1
			placeOnSheet(s, pl, rw, rh)
		}
	}

	buildSheets(p, sheets, placements, params)
	return nil
}

func placeOnExisting(sheets []*sheet, pl *placement, rw, rh, budget int) bool {
	for si, s := range sheets {
		// The first existing shelf with room, in shelf order.
		for i := range s.shelves {
			sh := &s.shelves[i]
			if rw <= budget-sh.xUsed && rh <= sh.height {
				pl.sheet = si
				pl.x, pl.y = sh.xUsed, sh.y
				sh.xUsed += rw
				return true
			}
		}
		// A fresh shelf below the last one.
		if rh <= budget-s.nextY {
			pl.sheet = si
			placeOnSheet(s, pl, rw, rh)
			return true
		}
	}
	return false
}

func placeOnSheet(s *sheet, pl *placement, rw, rh int) {
	pl.x, pl.y = 0, s.nextY
	s.shelves = append(s.shelves, shelf{y: s.nextY, height: rh, xUsed: rw})
	s.nextY += rh
}

func buildSheets(p *plate.ColorPlate, sheets []*sheet, placements []*placement, params Parameters) {
	neutral := NeutralColor(params.Usage)

	bitmaps := make([]*plate.Bitmap, len(sheets))
	for i, s := range sheets {
		height := params.Budget
		if !params.ForceSquare {
			height = nextPowerOfTwo(s.nextY)
		}
		bm := &plate.Bitmap{
			Width:         params.Budget,
			Height:        height,
			Depth:         1,
			RegistrationX: params.Budget / 2,
			RegistrationY: height / 2,
			Pixels:        make([]pixel.Pixel, params.Budget*height),
		}
		for j := range bm.Pixels {
			bm.Pixels[j] = neutral
		}
		bitmaps[i] = bm
	}

	for _, pl := range placements {
		dst := bitmaps[pl.sheet]
		left := pl.x + params.Spacing
		top := pl.y + params.Spacing
		for y := 0; y < pl.bm.Height; y++ {
			copy(dst.Pixels[(top+y)*dst.Width+left:], pl.bm.Pixels[y*pl.bm.Width:(y+1)*pl.bm.Width])
		}

		sp := &p.Sequences[pl.seq].Sprites[pl.idx]
		sp.BitmapIndex = pl.sheet
		sp.Left = left
		sp.Top = top
		sp.Right = left + pl.bm.Width
		sp.Bottom = top + pl.bm.Height
		sp.RegistrationX += left
		sp.RegistrationY += top
	}

	p.Bitmaps = bitmaps
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
