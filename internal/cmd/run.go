package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/sweeper/internal/config"
	"github.com/harrison/sweeper/internal/executor"
	"github.com/harrison/sweeper/internal/logger"
)

// NewRunCommand creates and returns the run subcommand
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run every combination of a sweep",
		Long: `Render the input template for every combination of the sweep's
variables, run the solver in a directory per combination and parse its output.

A failed run never stops the sweep. The first interrupt lets the running
solver finish and skips the remaining combinations; a second interrupt also
terminates the solver.

Exit code: 0 if every run succeeded or was skipped, 1 otherwise`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().Bool("dry-run", false, "Render input files without running the solver")
	cmd.Flags().String("timeout", "", "Maximum time per solver run (e.g., 30s, 5m; 0 = no limit)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("existing-runs", "", "Policy for populated run directories: overwrite, fail, skip")
	cmd.Flags().Bool("no-history", false, "Do not record this sweep in the history database")

	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithFlags(cmd, args[0])
	if err != nil {
		return err
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	loggers := []logger.SweepLogger{logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)}
	if cfg.LogFile != "" {
		fileLogger, err := logger.NewFileLogger(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}

	report, err := executor.RunSweep(cmd.Context(), cfg, executor.RunOptions{
		DryRun: dryRun,
		Logger: logger.NewMultiLogger(loggers...),
	})
	if err != nil {
		return err
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d runs failed", report.Failed, report.Total)
	}
	if report.Interrupted {
		return fmt.Errorf("sweep interrupted after %d of %d runs", report.Succeeded, report.Total)
	}
	return nil
}

// loadConfigWithFlags loads the config file and applies the flags the user
// set explicitly.
func loadConfigWithFlags(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var (
		timeout      *time.Duration
		logLevel     *string
		existingRuns *string
		history      *bool
	)
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format: %w", err)
		}
		timeout = &d
	}
	if flags.Changed("log-level") {
		s, _ := flags.GetString("log-level")
		logLevel = &s
	}
	if flags.Changed("existing-runs") {
		s, _ := flags.GetString("existing-runs")
		existingRuns = &s
	}
	if flags.Changed("no-history") {
		noHistory, _ := flags.GetBool("no-history")
		enabled := !noHistory
		history = &enabled
	}

	cfg.MergeWithFlags(timeout, logLevel, existingRuns, history)
	return cfg, nil
}
