package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/governor"
	"github.com/nadi-pro/browser/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "nadi",
	Short: "Nadi - sampling, privacy and trace propagation for browser telemetry",
	Long: `Nadi governs what a browser observability agent sends and how it is
correlated with backend traces:

  - Session sampling with rules, error and slow-session overrides and
    adaptive rates
  - PII detection and masking for text, URLs and JSON payloads
  - W3C trace context generation and propagation to allowed origins

Configuration is read from the file given with --config, then overridden by
NADI_* environment variables. Without --config the built-in defaults apply.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration named by --config with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger for one-shot commands. Records go to w as
// text at warn level, or debug with --verbose.
func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.ConfigFrom(cfg.Telemetry.Logging, governor.PrivacyConfig(cfg.Privacy))
	lc.Format = string(logging.FormatText)
	lc.Level = "warn"
	if verbose {
		lc.Level = "debug"
	}
	lc.BufferSize = 0
	lc.Writer = w
	return logging.New(lc)
}

// newGovernor loads the configuration and builds a governor for a one-shot
// command.
func newGovernor(cmd *cobra.Command, opts ...governor.Option) (*governor.Governor, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	opts = append([]governor.Option{governor.WithLogger(logger.Slog())}, opts...)
	gov, err := governor.New(cfg, opts...)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return gov, nil
}

// printResult writes data to the command output in the requested format.
func printResult(cmd *cobra.Command, format string, data any) error {
	f, err := cli.ParseFormat(format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(f).FormatTo(cmd.OutOrStdout(), data)
}

// commandContext returns the command context, or Background when the
// command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
