package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/bitmapc-cli/internal/pipeline"
)

var regenerateFlags bitmapFlags

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <tag-path>",
	Short: "Rebuild a bitmap tag from its embedded color plate",
	Long: `Inflates the color plate stored inside an existing tag and runs the
authoring pipeline over it instead of a source image. Options given on
the command line override the stored ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegenerate,
}

func init() {
	regenerateFlags.register(regenerateCmd)
	rootCmd.AddCommand(regenerateCmd)
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	opts, err := regenerateFlags.toOptions(cmd, args[0])
	if err != nil {
		return err
	}
	opts.Regenerate = true

	start := time.Now()
	result, err := pipeline.Run(opts)
	if err != nil {
		return err
	}

	printWarnings(result.Warnings)
	printBuildReport(result, time.Since(start))
	return nil
}
