package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tube-grabber/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:              "version",
		Short:            "Print version information.",
		Args:             cobra.NoArgs,
		PersistentPreRun: skipConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.Full())
		},
	}
}
