package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/bitmapc-cli/internal/tag"
)

var infoTagsDir string

var infoCmd = &cobra.Command{
	Use:   "info <tag-path>",
	Short: "Print a bitmap tag's header, sequences and bitmap records",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoTagsDir, "tags", "t", "tags", "tags directory")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, args []string) error {
	path := filepath.Join(infoTagsDir, filepath.FromSlash(args[0])+".bitmap")
	t, err := tag.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  Type:           %s\n", t.Type)
	fmt.Printf("  Format:         %s\n", t.Format)
	fmt.Printf("  Usage:          %s\n", t.Usage)
	fmt.Printf("  Flags:          %#04x\n", t.Flags)
	fmt.Printf("  Detail fade:    %g\n", t.DetailFade)
	fmt.Printf("  Sharpen:        %g\n", t.Sharpen)
	fmt.Printf("  Blur:           %g\n", t.BlurFilterSize)
	fmt.Printf("  Alpha bias:     %g\n", t.AlphaBias)
	fmt.Printf("  Bump height:    %g\n", t.BumpHeight)
	if t.MipmapCount == 0 {
		fmt.Printf("  Mipmap count:   complete chain\n")
	} else {
		fmt.Printf("  Mipmap count:   %d\n", t.MipmapCount-1)
	}
	fmt.Printf("  Sprite usage:   %s\n", t.SpriteUsage)
	fmt.Printf("  Sprite budget:  %dx%d, count %d, spacing %d\n",
		tag.SpriteBudgetLength(t.SpriteBudgetSize), tag.SpriteBudgetLength(t.SpriteBudgetSize),
		t.SpriteBudgetCount, t.SpriteSpacing)
	if t.ColorPlateWidth > 0 && t.ColorPlateHeight > 0 {
		fmt.Printf("  Color plate:    %dx%d (%d bytes compressed)\n",
			t.ColorPlateWidth, t.ColorPlateHeight, len(t.CompressedColorPlate))
	} else {
		fmt.Printf("  Color plate:    not preserved\n")
	}
	fmt.Printf("  Pixel data:     %d bytes, xxhash %016x\n",
		len(t.PixelData), xxhash.Sum64(t.PixelData))

	for i, seq := range t.Sequences {
		if len(seq.Sprites) > 0 {
			fmt.Printf("  Sequence %-2d     first %d, %d sprites\n", i, seq.FirstBitmapIndex, len(seq.Sprites))
			for j, sp := range seq.Sprites {
				fmt.Printf("    Sprite %-2d     sheet %d  (%.3f,%.3f)-(%.3f,%.3f)  reg (%.3f,%.3f)\n",
					j, sp.BitmapIndex, sp.Left, sp.Top, sp.Right, sp.Bottom, sp.RegistrationX, sp.RegistrationY)
			}
		} else {
			fmt.Printf("  Sequence %-2d     first %d, count %d\n", i, seq.FirstBitmapIndex, seq.BitmapCount)
		}
	}

	for i, b := range t.Bitmaps {
		fmt.Printf("  Bitmap %-2d       %dx%dx%d %s %s, %d mipmaps, %d bytes at %d\n",
			i, b.Width, b.Height, b.Depth, b.Type, b.Format, b.MipmapCount, b.PixelSize, b.PixelOffset)
	}
	return nil
}
