package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tube-grabber/internal/app"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteServeCommand(cmd.Context(), appConfig)
		},
	}

	flags := cmd.Flags()

	flags.StringP(
		"listen",
		"l",
		"",
		"address the HTTP server listens on, for example: 127.0.0.1:5000.")

	addOutputFlags(flags)

	return cmd
}
