// Package pipeline runs one bitmap authoring job end to end: adopt
// defaults from an existing tag, decode or regenerate the color plate,
// scan, process, encode, and emit the serialized tag.
package pipeline

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/AnyUserName/bitmapc-cli/internal/encode"
	"github.com/AnyUserName/bitmapc-cli/internal/loader"
	"github.com/AnyUserName/bitmapc-cli/internal/pixel"
	"github.com/AnyUserName/bitmapc-cli/internal/plate"
	"github.com/AnyUserName/bitmapc-cli/internal/process"
	"github.com/AnyUserName/bitmapc-cli/internal/sprite"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

var (
	// ErrCannotRegenerate means regeneration was requested but no tag
	// exists at the destination.
	ErrCannotRegenerate = errors.New("cannot regenerate")

	// ErrNoColorPlateData means the existing tag carries no usable
	// embedded color plate.
	ErrNoColorPlateData = errors.New("tag has no color plate data")

	// ErrCompressedSizeMismatch means the embedded plate's recorded
	// size disagrees with the inflated data.
	ErrCompressedSizeMismatch = errors.New("compressed color plate size mismatch")
)

// Result reports a completed job.
type Result struct {
	// TagPath is the destination the tag was written to.
	TagPath string

	Tag      *tag.Tag
	Checksum uint64

	// Warnings are non-fatal diagnostics collected along the way.
	Warnings []string
}

// Run executes one authoring job. The destination file is only written
// when the whole pipeline has succeeded.
func Run(opts Options) (*Result, error) {
	finalPath := filepath.Join(opts.TagsDir, filepath.FromSlash(opts.TagPath)+".bitmap")

	var existing *tag.Tag
	if !opts.IgnoreTagData {
		if _, err := os.Stat(finalPath); err == nil {
			t, err := tag.ReadFile(finalPath)
			if err != nil {
				return nil, err
			}
			existing = t
			adoptDefaults(&opts, existing)
		}
	}
	if opts.Regenerate && existing == nil {
		return nil, fmt.Errorf("%w: no bitmap tag at %s", ErrCannotRegenerate, finalPath)
	}

	s := resolve(opts)

	var (
		pixels []pixel.Pixel
		width  int
		height int
		err    error
	)
	if opts.Regenerate {
		pixels, width, height, err = inflatePlate(existing)
	} else {
		var path string
		path, err = loader.Find(opts.DataDir, opts.TagPath)
		if err == nil {
			pixels, width, height, err = loader.Decode(path)
		}
	}
	if err != nil {
		return nil, err
	}

	scanned, err := plate.Scan(pixels, width, height, s.Type, s.FilthySpriteBugFix, opts.AllowNonPowerOfTwo)
	if err != nil {
		return nil, err
	}

	procOpts := process.Options{
		Type:           s.Type,
		Usage:          s.Usage,
		MaxMipmapCount: s.MipmapCount,
		ScaleType:      s.ScaleType,
		Sharpen:        s.Sharpen,
		Blur:           s.Blur,
		AlphaBias:      s.AlphaBias,
		BumpHeight:     s.BumpHeight,
	}
	if s.Usage == tag.UsageDetailMap {
		procOpts.DetailFade = s.DetailFade
	}
	if s.Type == tag.TypeSprites {
		procOpts.Sprites = &sprite.Parameters{
			Budget:      s.SpriteBudget,
			BudgetCount: s.SpriteBudgetCount,
			Usage:       s.SpriteUsage,
			Spacing:     s.SpriteSpacing,
			ForceSquare: opts.ForceSquareSheets,
		}
	}
	if err := process.Process(scanned, procOpts); err != nil {
		return nil, err
	}

	encoded, err := encode.EncodeColorPlate(scanned, s.Format, s.Type, s.Usage, s.Palettize, s.Dithering)
	if err != nil {
		return nil, err
	}

	result := &Result{TagPath: finalPath, Warnings: encoded.Warnings}

	t := buildTag(s, scanned, encoded, existing, opts.Regenerate, result)
	checksum, err := tag.WriteFile(finalPath, t)
	if err != nil {
		return nil, err
	}

	result.Tag = t
	result.Checksum = checksum
	return result, nil
}

// buildTag assembles the serialized artifact from the pipeline outputs.
func buildTag(s settings, scanned *plate.ColorPlate, encoded *encode.Result, existing *tag.Tag, regenerate bool, result *Result) *tag.Tag {
	t := &tag.Tag{
		Type:              s.Type,
		Format:            s.Format,
		Usage:             s.Usage,
		DetailFade:        float32(s.DetailFade),
		Sharpen:           float32(s.Sharpen),
		BumpHeight:        float32(s.BumpHeight),
		SpriteBudgetSize:  tag.SpriteBudgetSize(s.SpriteBudget),
		SpriteBudgetCount: uint16(s.SpriteBudgetCount),
		BlurFilterSize:    float32(s.Blur),
		AlphaBias:         float32(s.AlphaBias),
		SpriteUsage:       s.SpriteUsage,
		SpriteSpacing:     uint16(s.SpriteSpacing),
		Sequences:         buildSequences(s.Type, scanned),
		Bitmaps:           encoded.Records,
		PixelData:         encoded.Blob,
	}

	// A complete chain is stored as zero; a cap as cap plus one.
	if s.MipmapCount >= process.FullMipmapChain {
		t.MipmapCount = 0
	} else {
		t.MipmapCount = uint16(s.MipmapCount + 1)
	}

	// Recompose the option flags, keeping any other bits an existing
	// tag carried.
	var flags uint16
	if existing != nil {
		flags = existing.Flags
	}
	flags &^= tag.FlagEnableDiffusionDithering | tag.FlagDisableHeightMapCompression | tag.FlagFilthySpriteBugFix
	if s.Dithering {
		flags |= tag.FlagEnableDiffusionDithering
	}
	if !s.Palettize {
		flags |= tag.FlagDisableHeightMapCompression
	}
	if s.FilthySpriteBugFix {
		flags |= tag.FlagFilthySpriteBugFix
	}
	t.Flags = flags

	preservePlate(t, scanned, existing, regenerate, result)
	return t
}

// buildSequences emits the tag's sequence records. Sprite rectangles and
// registration points normalize to their sheet's dimensions.
func buildSequences(typ tag.BitmapType, scanned *plate.ColorPlate) []tag.Sequence {
	sequences := make([]tag.Sequence, 0, len(scanned.Sequences))
	for _, seq := range scanned.Sequences {
		out := tag.Sequence{}

		if typ == tag.TypeSprites {
			if len(seq.Sprites) == 1 {
				out.BitmapCount = 1
			}
			first := -1
			for _, sp := range seq.Sprites {
				sheet := scanned.Bitmaps[sp.BitmapIndex]
				out.Sprites = append(out.Sprites, tag.SpriteRecord{
					BitmapIndex:   uint16(sp.BitmapIndex),
					Left:          float32(sp.Left) / float32(sheet.Width),
					Right:         float32(sp.Right) / float32(sheet.Width),
					Top:           float32(sp.Top) / float32(sheet.Height),
					Bottom:        float32(sp.Bottom) / float32(sheet.Height),
					RegistrationX: float32(sp.RegistrationX) / float32(sheet.Width),
					RegistrationY: float32(sp.RegistrationY) / float32(sheet.Height),
				})
				if first < 0 || sp.BitmapIndex < first {
					first = sp.BitmapIndex
				}
			}
			if first < 0 {
				first = 0
			}
			out.FirstBitmapIndex = uint16(first)
		} else {
			out.FirstBitmapIndex = uint16(seq.FirstBitmap)
			out.BitmapCount = uint16(seq.BitmapCount)
		}
		sequences = append(sequences, out)
	}
	return sequences
}

// preservePlate embeds a deflate-compressed copy of the source plate so
// the tag can be regenerated later. Regeneration keeps the existing
// embedded data byte for byte.
func preservePlate(t *tag.Tag, scanned *plate.ColorPlate, existing *tag.Tag, regenerate bool, result *Result) {
	if regenerate {
		t.ColorPlateWidth = existing.ColorPlateWidth
		t.ColorPlateHeight = existing.ColorPlateHeight
		t.CompressedColorPlate = existing.CompressedColorPlate
		return
	}

	if scanned.PlateWidth > math.MaxInt16 || scanned.PlateHeight > math.MaxInt16 {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"color plate dimensions exceed %dx%d; the bitmap can still be made, but it cannot be regenerated",
			math.MaxInt16, math.MaxInt16))
		return
	}

	raw := make([]byte, 0, len(scanned.PlatePixels)*4)
	for _, p := range scanned.PlatePixels {
		raw = append(raw, p.Blue, p.Green, p.Red, p.Alpha)
	}

	buf := &bytes.Buffer{}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(raw)))
	buf.Write(lenPrefix[:])

	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		panic(err) // the level constant is valid
	}
	zw.Write(raw)
	zw.Close()

	t.ColorPlateWidth = uint16(scanned.PlateWidth)
	t.ColorPlateHeight = uint16(scanned.PlateHeight)
	t.CompressedColorPlate = buf.Bytes()
}

// inflatePlate reconstructs the raw plate pixels embedded in a tag.
func inflatePlate(t *tag.Tag) ([]pixel.Pixel, int, int, error) {
	width := int(t.ColorPlateWidth)
	height := int(t.ColorPlateHeight)
	if len(t.CompressedColorPlate) < 4 || width == 0 || height == 0 {
		return nil, 0, 0, ErrNoColorPlateData
	}

	decompressedLen := int(binary.BigEndian.Uint32(t.CompressedColorPlate[:4]))
	if decompressedLen%4 != 0 {
		return nil, 0, 0, fmt.Errorf("%w: length %d is not a multiple of the pixel size", ErrNoColorPlateData, decompressedLen)
	}

	zr, err := zlib.NewReader(bytes.NewReader(t.CompressedColorPlate[4:]))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrNoColorPlateData, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %v", ErrNoColorPlateData, err)
	}
	if len(raw) != decompressedLen || decompressedLen != width*height*4 {
		return nil, 0, 0, fmt.Errorf("%w: recorded %d bytes, inflated %d for a %dx%d plate",
			ErrCompressedSizeMismatch, decompressedLen, len(raw), width, height)
	}

	pixels := make([]pixel.Pixel, width*height)
	for i := range pixels {
		pixels[i] = pixel.Pixel{
			Blue:  raw[i*4+0],
			Green: raw[i*4+1],
			Red:   raw[i*4+2],
			Alpha: raw[i*4+3],
		}
	}
	return pixels, width, height, nil
}
