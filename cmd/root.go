package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/tube-grabber/internal/config"
	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "tube-grabber",
		Short: "Inspect and download videos or audio through a local web API.",
		Long: `Tube Grabber is a local front-end for yt-dlp.
It can:
- Serve an HTTP API that inspects a video URL and lists its formats
- Download the selected format in the background while reporting progress
- Convert downloads to audio with embedded cover art and tags

Run 'tube-grabber serve' to start the HTTP API.`,
		Version:          version.Short(),
		PersistentPreRun: initConfig,
		SilenceUsage:     true,
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmd.AddCommand(
		newServeCommand(),
		newInspectCommand(),
		newDownloadCommand(),
		newInitConfigCommand(),
		newVersionCommand(),
	)
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Invalid configuration: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)

	if appConfig.LogFile != "" {
		logger.SetLogger(logger.NewWithFile(nil, logger.FileOptions{
			Filename:   appConfig.LogFile,
			MaxSizeMB:  appConfig.LogMaxSizeMB,
			MaxBackups: appConfig.LogMaxBackups,
		}))
	}
}

// skipConfig replaces initConfig for commands that do not read the configuration.
func skipConfig(*cobra.Command, []string) {}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("listen"); flag != nil && flag.Changed {
		cfg.ListenAddress, _ = flags.GetString("listen")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return config.ValidateConfig(cfg)
}
