package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bitmapc",
	Short: "Compile color-plate images into engine-ready bitmap tags",
	Long: `bitmapc — turns authoring color plates into big-endian bitmap tags:
scans the plate into bitmaps, sequences and sprites, generates mipmaps,
packs sprite sheets, encodes DXT/16-bit/monochrome/P8 pixel data, and
embeds a compressed copy of the plate so tags can be regenerated.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		color.Error.Println(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"bitmapc %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[bitmapc] "+format+"\n", args...)
	}
}

// printWarnings surfaces non-fatal diagnostics.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		color.Warn.Println(w)
	}
}
