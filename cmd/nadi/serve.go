package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/governor"
	"github.com/nadi-pro/browser/pkg/server"
	"github.com/nadi-pro/browser/pkg/telemetry/health"
	"github.com/nadi-pro/browser/pkg/telemetry/logging"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
	"github.com/nadi-pro/browser/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	noWatch       bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the governance API",
	Long: `Start the HTTP governance API with the specified configuration.

The server answers scrub, sampling and trace-context requests from
collectors, exposes Prometheus metrics and health probes, and resets the
adaptive sampling window on its cron schedule. When started with --config,
edits to the file are applied without a restart.

Examples:
  # Start with built-in defaults
  nadi serve

  # Start with a config file
  nadi serve --config /etc/nadi/nadi.yaml

  # Override listen address
  nadi serve --listen 0.0.0.0:8080

  # Validate config without starting server
  nadi serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	logger, err := logging.New(logging.ConfigFrom(cfg.Telemetry.Logging, governor.PrivacyConfig(cfg.Privacy)))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer logger.Shutdown()
	slog.SetDefault(logger.Slog())

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	gov, err := governor.New(cfg,
		governor.WithMetrics(collector),
		governor.WithLogger(logger.Slog()),
	)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	tracing.InstallPropagator()
	tracer, err := tracing.New(cfg.Telemetry.Tracing,
		tracing.WithSessionSource(gov),
		tracing.WithServiceVersion(Version),
		tracing.WithWriter(cmd.ErrOrStderr()),
	)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	gov.RegisterChecks(checker)

	srv, err := server.New(cfg, gov,
		server.WithMetrics(collector),
		server.WithHealth(checker),
		server.WithTracer(tracer),
		server.WithLogger(logger),
		server.WithVersion(health.NewVersionInfo(Version, GitCommit, BuildDate)),
	)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	sched := governor.NewScheduler(gov, logger.Slog())
	if err := sched.Start(ctx); err != nil {
		return cli.NewConfigError("sampling.adaptive.window_schedule", err.Error())
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfgFile != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, logger.Slog())
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()

		g.Go(func() error {
			return watcher.Watch(gctx, func(next *config.Config) error {
				if err := gov.Apply(next); err != nil {
					return err
				}
				return sched.Reschedule(next.Sampling.Adaptive)
			})
		})
	}

	fmt.Fprintf(out, "Nadi v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(out, "✓ Configuration loaded from %s\n", cfgFile)
	}
	fmt.Fprintf(out, "✓ Governance API on %s\n", cfg.Server.ListenAddress)
	if next := sched.NextRun(); next != nil {
		fmt.Fprintf(out, "✓ Adaptive window resets, next at %s\n", next.Format(time.RFC3339))
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}
