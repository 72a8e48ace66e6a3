package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
)

func newInitConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:              "init-config [path]",
		Short:            "Write the default configuration file.",
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRun: skipConfig,
		Run: func(cmd *cobra.Command, args []string) {
			path := configFilenameFromFlag
			if len(args) > 0 {
				path = args[0]
			}

			if path == "" {
				path = config.DefaultConfigFilename
			}

			if err := config.WriteDefaultConfig(path); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to write configuration: %v", err)
			}

			logger.Infof(cmd.Context(), "Configuration written to %s", path)
		},
	}
}
