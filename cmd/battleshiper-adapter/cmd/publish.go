package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/battleshiper-adapter/internal/service/publisher"
)

// executionID names the upload.
var executionID string

// publishCmd uploads a finished build.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a finished build to S3 or a local directory",
	Long: "Verify every artifact against the build description and upload client/, prerendered/ " +
		"and server/bootstrap.zip under <prefix><execution-id>/.",
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signalContext()
		defer stop()

		return publisher.Run(ctx, &publisher.Options{
			ConfigPath:  configPath,
			ExecutionID: executionID,
		})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	publishCmd.Flags().StringVar(&executionID, "execution-id", "", "upload identifier, a random UUID when empty")
	rootCmd.AddCommand(publishCmd)
}
