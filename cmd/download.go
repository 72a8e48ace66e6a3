package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/tube-grabber/internal/app"
	"github.com/oshokin/tube-grabber/internal/logger"
)

func newDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download {url}",
		Short: "Download one format of a video in the foreground.",
		Long: `Download one format of a video in the foreground.
Use 'tube-grabber inspect' to list the format identifiers.
Video formats are merged with the best audio; audio formats are converted
to the configured audio format.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			formatID, err := cmd.Flags().GetString("format")
			if err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			app.ExecuteDownloadCommand(cmd.Context(), appConfig, args[0], formatID)
		},
	}

	flags := cmd.Flags()

	flags.StringP(
		"format",
		"f",
		"",
		"format identifier as printed by the inspect command.")

	_ = cmd.MarkFlagRequired("format")

	addOutputFlags(flags)

	return cmd
}

// addOutputFlags registers the flags shared by commands that write files.
func addOutputFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded files (the path will be created if it doesn't exist).")

	addLogLevelFlag(flags)
}

func addLogLevelFlag(flags *pflag.FlagSet) {
	flags.String(
		"log-level",
		"",
		"log verbosity: debug, info, warn, error.")
}
