package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/battleshiper-adapter/internal/service/packager"
)

// buildCmd packages the framework output into a deployable layout.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Package the framework output into a Lambda deployable layout",
	Long: "Copy static assets, generate the manifest and entry packages, compile the bootstrap executable " +
		"for the provided.al2023 runtime and wrap it into bootstrap.zip. Compiler warnings abort the build.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signalContext()
		defer stop()

		options := &packager.Options{
			ConfigPath: configPath,
			Console:    cmd.ErrOrStderr(),
		}

		if cmd.Flags().Changed("debug") {
			debug, err := cmd.Flags().GetBool("debug")
			if err != nil {
				return err
			}

			options.Debug = &debug
		}

		return packager.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	buildCmd.Flags().Bool("debug", false, "expose error details in runtime failure replies and keep symbols")
	rootCmd.AddCommand(buildCmd)
}
