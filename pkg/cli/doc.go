/*
Package cli provides command-line interface utilities for the nadi command.

Output Formatting:

Commands print results as text, JSON or YAML, selected with --format:

	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results that implement Texter control their text rendering.

Progress Reporting:

For long-running operations, such as simulating many sessions:

	progress := cli.NewProgressReporter(os.Stderr, "sessions")
	progress.Start(total)
	for i := int64(1); i <= total; i++ {
		// Do work
		progress.Update(i)
	}
	progress.Finish()

Errors and Exit Codes:

ConfigError and CommandError classify failures; ExitCode maps them to the
process exit status (2 for configuration problems, 1 otherwise).

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
