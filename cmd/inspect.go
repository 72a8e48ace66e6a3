package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tube-grabber/internal/app"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect {url}",
		Short: "Print the title, duration and available formats of a video.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app.ExecuteInspectCommand(cmd.Context(), appConfig, args[0])
		},
	}

	addLogLevelFlag(cmd.Flags())

	return cmd
}
