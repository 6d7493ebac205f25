package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/bitmapc-cli/internal/pipeline"
	"github.com/AnyUserName/bitmapc-cli/internal/process"
	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

// bitmapFlags backs the option flags shared by build and regenerate.
// Only flags the user actually set make it into the pipeline options;
// everything else adopts the existing tag's values or the defaults.
type bitmapFlags struct {
	dataDir string
	tagsDir string

	ignoreTag          bool
	allowNonPowerOfTwo bool
	squareSheets       bool

	format      string
	bitmapType  string
	usage       string
	spriteUsage string
	mipmapScale string

	mipmapCount        int
	budget             int
	budgetCount        int
	spacing            int
	detailFade         float64
	bumpHeight         float64
	alphaBias          float64
	sharpen            float64
	blur               float64
	palettize          bool
	dithering          bool
	filthySpriteBugFix bool
}

func (f *bitmapFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.dataDir, "data", "d", "data", "data directory with source images")
	flags.StringVarP(&f.tagsDir, "tags", "t", "tags", "tags directory")
	flags.BoolVarP(&f.ignoreTag, "ignore-tag", "I", false, "ignore the tag data if the tag exists")
	flags.BoolVarP(&f.allowNonPowerOfTwo, "allow-non-power-of-two", "n", false, "allow non-power-of-two, non-interface bitmaps")
	flags.BoolVarP(&f.squareSheets, "square-sheets", "S", false, "force square sprite sheets")
	flags.StringVarP(&f.format, "format", "F", "auto", "pixel format: auto, 32-bit, 16-bit, monochrome, dxt5, dxt3, dxt1")
	flags.StringVarP(&f.bitmapType, "type", "T", "2d_textures", "bitmap type: 2d_textures, 3d_textures, cube_maps, interface_bitmaps, sprites")
	flags.StringVarP(&f.usage, "usage", "u", "default", "usage: alpha_blend, default, height_map, detail_map, light_map, vector_map")
	flags.StringVar(&f.spriteUsage, "sprite-usage", "blend_add_subtract_max", "sprite usage: blend_add_subtract_max, multiply_min, double_multiply")
	flags.StringVarP(&f.mipmapScale, "mipmap-scale", "s", "linear", "mipmap scale type: linear, nearest_alpha, nearest")
	flags.IntVarP(&f.mipmapCount, "mipmap-count", "M", process.FullMipmapChain, "maximum mipmap count")
	flags.IntVarP(&f.budget, "budget", "B", 32, "maximum sprite sheet edge: 32, 64, 128, 256, 512, 1024")
	flags.IntVarP(&f.budgetCount, "budget-count", "C", 0, "maximum sheet count, 0 disables budgeting")
	flags.IntVar(&f.spacing, "spacing", 0, "pixel gutter around every sprite")
	flags.Float64VarP(&f.detailFade, "detail-fade", "f", 0, "detail fade factor, 0.0 to 1.0")
	flags.Float64VarP(&f.bumpHeight, "bump-height", "H", 0.026, "apparent bumpmap height, 0.0 to 1.0")
	flags.Float64VarP(&f.alphaBias, "alpha-bias", "A", 0, "alpha bias, -1.0 to 1.0")
	flags.Float64Var(&f.sharpen, "sharpen", 0, "unsharp-mask amount, 0.0 to 1.0")
	flags.Float64Var(&f.blur, "blur", 0, "gaussian blur radius")
	flags.BoolVarP(&f.palettize, "bump-palettize", "p", false, "palettize height maps to p8 bump")
	flags.BoolVarP(&f.dithering, "dithering", "D", false, "dither 16-bit bitmaps")
	flags.BoolVarP(&f.filthySpriteBugFix, "reg-point-hack", "r", false, "measure sprite registration points from the trimmed sprite rectangle")
}

// toOptions validates the set flags and assembles pipeline options.
func (f *bitmapFlags) toOptions(cmd *cobra.Command, tagPath string) (pipeline.Options, error) {
	opts := pipeline.Options{
		DataDir:            f.dataDir,
		TagsDir:            f.tagsDir,
		TagPath:            tagPath,
		IgnoreTagData:      f.ignoreTag,
		AllowNonPowerOfTwo: f.allowNonPowerOfTwo,
		ForceSquareSheets:  f.squareSheets,
	}

	changed := cmd.Flags().Changed

	if changed("format") {
		v, err := tag.ParseFormat(f.format)
		if err != nil {
			return opts, err
		}
		opts.Format = &v
	}
	if changed("type") {
		v, err := tag.ParseBitmapType(f.bitmapType)
		if err != nil {
			return opts, err
		}
		opts.Type = &v
	}
	if changed("usage") {
		v, err := tag.ParseBitmapUsage(f.usage)
		if err != nil {
			return opts, err
		}
		opts.Usage = &v
	}
	if changed("sprite-usage") {
		v, err := tag.ParseSpriteUsage(f.spriteUsage)
		if err != nil {
			return opts, err
		}
		opts.SpriteUsage = &v
	}
	if changed("mipmap-scale") {
		v, err := process.ParseScaleType(f.mipmapScale)
		if err != nil {
			return opts, err
		}
		opts.ScaleType = &v
	}
	if changed("mipmap-count") {
		if f.mipmapCount < 0 {
			return opts, fmt.Errorf("mipmap count must not be negative")
		}
		opts.MipmapCount = &f.mipmapCount
	}
	if changed("budget") {
		switch f.budget {
		case 32, 64, 128, 256, 512, 1024:
		default:
			return opts, fmt.Errorf("invalid sprite budget %d", f.budget)
		}
		opts.SpriteBudget = &f.budget
	}
	if changed("budget-count") {
		opts.SpriteBudgetCount = &f.budgetCount
	}
	if changed("spacing") {
		opts.SpriteSpacing = &f.spacing
	}
	if changed("detail-fade") {
		if f.detailFade < 0 || f.detailFade > 1 {
			return opts, fmt.Errorf("detail fade must be between 0.0 and 1.0")
		}
		opts.DetailFade = &f.detailFade
	}
	if changed("bump-height") {
		opts.BumpHeight = &f.bumpHeight
	}
	if changed("alpha-bias") {
		if f.alphaBias < -1 || f.alphaBias > 1 {
			return opts, fmt.Errorf("alpha bias must be between -1.0 and 1.0")
		}
		opts.AlphaBias = &f.alphaBias
	}
	if changed("sharpen") {
		if f.sharpen <= 0 || f.sharpen > 1 {
			return opts, fmt.Errorf("sharpen must be within (0.0, 1.0]")
		}
		opts.Sharpen = &f.sharpen
	}
	if changed("blur") {
		if f.blur <= 0 {
			return opts, fmt.Errorf("blur must be greater than zero")
		}
		opts.Blur = &f.blur
	}
	if changed("bump-palettize") {
		opts.Palettize = &f.palettize
	}
	if changed("dithering") {
		opts.Dithering = &f.dithering
	}
	if changed("reg-point-hack") {
		opts.FilthySpriteBugFix = &f.filthySpriteBugFix
	}

	return opts, nil
}
