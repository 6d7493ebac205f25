package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/bitmapc-cli/internal/pipeline"
)

var buildFlags bitmapFlags

var buildCmd = &cobra.Command{
	Use:   "build <tag-path>",
	Short: "Create or modify a bitmap tag from a color plate",
	Long: `Finds the source image (tif, tiff, png, tga, bmp) for the tag path
under the data directory, runs the authoring pipeline, and writes the
tag under the tags directory.

Options not given on the command line adopt the values stored in an
existing tag at the destination unless --ignore-tag is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildFlags.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := buildFlags.toOptions(cmd, args[0])
	if err != nil {
		return err
	}

	logVerbose("data: %s", opts.DataDir)
	logVerbose("tags: %s", opts.TagsDir)

	start := time.Now()
	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}

	printWarnings(result.Warnings)
	printBuildReport(result, time.Since(start))
	return nil
}

func printBuildReport(result *pipeline.Result, elapsed time.Duration) {
	t := result.Tag
	fmt.Printf("Total: %.03f MiB\n", float64(len(t.PixelData))/1024/1024)
	fmt.Printf("  Type:      %s\n", t.Type)
	fmt.Printf("  Format:    %s\n", t.Format)
	fmt.Printf("  Usage:     %s\n", t.Usage)
	fmt.Printf("  Sequences: %d\n", len(t.Sequences))
	fmt.Printf("  Bitmaps:   %d\n", len(t.Bitmaps))
	fmt.Printf("  Checksum:  %016x\n", result.Checksum)
	fmt.Printf("  Time:      %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  Wrote:     %s\n", result.TagPath)
}
