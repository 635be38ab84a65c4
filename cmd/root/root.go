// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/statement-import/internal/config"
	"fjacquet/statement-import/internal/container"
	"fjacquet/statement-import/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input     string
	Output    string
	Format    string
	Delimiter string
	LogLevel  string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// AppConfig is the configuration loaded before any subcommand runs.
	AppConfig *config.Config

	// AppContainer wires the extractors and the dispatcher for subcommands.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "statement-import",
		Short: "Import bank and card statements into canonical transactions.",
		Long: `statement-import reads bank and credit-card statements exported as
CSV, Excel or PDF, works out their structure, and normalises every row into a
canonical transaction routed to an account or a card billing cycle.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to statement-import!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer != nil {
				if err := AppContainer.Close(); err != nil {
					Log.Warnf("Failed to close container: %v", err)
				}
			}
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory (stdout when empty)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Format, "format", "f", "", "Output format: json, yaml or csv")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Delimiter, "delimiter", "", "CSV output delimiter")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Initialize loads the configuration, applies flag overrides and builds the
// container.
func Initialize(cmd *cobra.Command) error {
	config.LoadEnv()

	cfg, err := config.InitializeConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ApplyFlagOverrides(cfg, SharedFlags)

	Log = config.ConfigureLoggingFromConfig(cfg)
	logging.SetAllLogLevels(Log.GetLevel())

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	AppConfig = cfg
	AppContainer = c
	Log.WithField("command", cmd.Name()).Debug("Application initialised")
	return nil
}

// ApplyFlagOverrides copies non-empty command line flags over cfg.
func ApplyFlagOverrides(cfg *config.Config, flags CommonFlags) {
	if flags.Format != "" {
		cfg.Output.Format = flags.Format
	}
	if flags.Delimiter != "" {
		cfg.Output.Delimiter = flags.Delimiter
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
}

// GetLogrusAdapter returns the command logger behind the logging interface.
func GetLogrusAdapter() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(Log)
}

// GetContainer returns the application container, or nil before Initialize.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration, falling back to the defaults.
func GetConfig() *config.Config {
	if AppConfig == nil {
		return config.DefaultConfig()
	}
	return AppConfig
}
