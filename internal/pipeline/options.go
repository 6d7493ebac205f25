package pipeline

import (
	"github.com/AnyUserName/bitmapc-cli/internal/process"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// Options holds one authoring job's parameters. Nil pointer fields were
// not given by the caller: they adopt the value stored in an existing
// tag at the destination, then fall back to the hard defaults.
type Options struct {
	DataDir string
	TagsDir string

	// TagPath is the tag path relative to the directories, without
	// extension, using forward slashes.
	TagPath string

	IgnoreTagData      bool
	Regenerate         bool
	AllowNonPowerOfTwo bool
	ForceSquareSheets  bool

	Format             *tag.Format
	Type               *tag.BitmapType
	Usage              *tag.BitmapUsage
	MipmapCount        *int
	ScaleType          *process.ScaleType
	DetailFade         *float64
	SpriteUsage        *tag.SpriteUsage
	SpriteBudget       *int
	SpriteBudgetCount  *int
	SpriteSpacing      *int
	Palettize          *bool
	BumpHeight         *float64
	AlphaBias          *float64
	Dithering          *bool
	FilthySpriteBugFix *bool
	Sharpen            *float64
	Blur               *float64
}

// settings is the fully resolved option set a job runs with.
type settings struct {
	Format             tag.Format
	Type               tag.BitmapType
	Usage              tag.BitmapUsage
	MipmapCount        int
	ScaleType          process.ScaleType
	DetailFade         float64
	SpriteUsage        tag.SpriteUsage
	SpriteBudget       int
	SpriteBudgetCount  int
	SpriteSpacing      int
	Palettize          bool
	BumpHeight         float64
	AlphaBias          float64
	Dithering          bool
	FilthySpriteBugFix bool
	Sharpen            float64
	Blur               float64
}

// adoptDefaults fills unset options from an existing tag's stored
// values. Adopted values are informational, never errors.
func adoptDefaults(opts *Options, t *tag.Tag) {
	if opts.Format == nil {
		f := t.Format
		opts.Format = &f
	}
	if opts.DetailFade == nil {
		v := float64(t.DetailFade)
		opts.DetailFade = &v
	}
	if opts.Type == nil {
		v := t.Type
		opts.Type = &v
	}
	if opts.MipmapCount == nil {
		// Zero in the tag means a complete chain; otherwise the field
		// stores the cap plus one.
		v := process.FullMipmapChain
		if t.MipmapCount != 0 {
			v = int(t.MipmapCount) - 1
		}
		opts.MipmapCount = &v
	}
	if opts.SpriteUsage == nil {
		v := t.SpriteUsage
		opts.SpriteUsage = &v
	}
	if opts.SpriteBudget == nil {
		v := tag.SpriteBudgetLength(t.SpriteBudgetSize)
		opts.SpriteBudget = &v
	}
	if opts.SpriteBudgetCount == nil {
		v := int(t.SpriteBudgetCount)
		opts.SpriteBudgetCount = &v
	}
	if opts.Usage == nil {
		v := t.Usage
		opts.Usage = &v
	}
	if opts.Dithering == nil {
		v := t.Flags&tag.FlagEnableDiffusionDithering != 0
		opts.Dithering = &v
	}
	if opts.Palettize == nil {
		v := t.Flags&tag.FlagDisableHeightMapCompression == 0
		opts.Palettize = &v
	}
	if opts.BumpHeight == nil {
		v := float64(t.BumpHeight)
		opts.BumpHeight = &v
	}
	if opts.Sharpen == nil && t.Sharpen > 0 && t.Sharpen <= 1 {
		v := float64(t.Sharpen)
		opts.Sharpen = &v
	}
	if opts.Blur == nil && t.BlurFilterSize > 0 {
		v := float64(t.BlurFilterSize)
		opts.Blur = &v
	}
	if opts.SpriteSpacing == nil {
		v := int(t.SpriteSpacing)
		opts.SpriteSpacing = &v
	}
	if opts.FilthySpriteBugFix == nil {
		v := t.Flags&tag.FlagFilthySpriteBugFix != 0
		opts.FilthySpriteBugFix = &v
	}
	if opts.AlphaBias == nil {
		v := float64(t.AlphaBias)
		opts.AlphaBias = &v
	}
}

// resolve applies the hard defaults for anything still unset.
func resolve(opts Options) settings {
	s := settings{
		Format:            tag.FormatAuto,
		Type:              tag.Type2DTextures,
		Usage:             tag.UsageDefault,
		MipmapCount:       process.FullMipmapChain,
		ScaleType:         process.ScaleLinear,
		SpriteUsage:       tag.SpriteUsageBlendAddSubtractMax,
		SpriteBudget:      32,
		SpriteBudgetCount: 0,
		BumpHeight:        0.026,
	}
	if opts.Format != nil {
		s.Format = *opts.Format
	}
	if opts.Type != nil {
		s.Type = *opts.Type
	}
	if opts.Usage != nil {
		s.Usage = *opts.Usage
	}
	if opts.MipmapCount != nil {
		s.MipmapCount = *opts.MipmapCount
	}
	if opts.ScaleType != nil {
		s.ScaleType = *opts.ScaleType
	}
	if opts.DetailFade != nil {
		s.DetailFade = *opts.DetailFade
	}
	if opts.SpriteUsage != nil {
		s.SpriteUsage = *opts.SpriteUsage
	}
	if opts.SpriteBudget != nil {
		s.SpriteBudget = *opts.SpriteBudget
	}
	if opts.SpriteBudgetCount != nil {
		s.SpriteBudgetCount = *opts.SpriteBudgetCount
	}
	if opts.SpriteSpacing != nil {
		s.SpriteSpacing = *opts.SpriteSpacing
	}
	if opts.Palettize != nil {
		s.Palettize = *opts.Palettize
	}
	if opts.BumpHeight != nil {
		s.BumpHeight = *opts.BumpHeight
	}
	if opts.AlphaBias != nil {
		s.AlphaBias = *opts.AlphaBias
	}
	if opts.Dithering != nil {
		s.Dithering = *opts.Dithering
	}
	if opts.FilthySpriteBugFix != nil {
		s.FilthySpriteBugFix = *opts.FilthySpriteBugFix
	}
	if opts.Sharpen != nil {
		s.Sharpen = *opts.Sharpen
	}
	if opts.Blur != nil {
		s.Blur = *opts.Blur
	}
	return s
}
