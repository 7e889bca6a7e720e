package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/sweeper/internal/config"
	"github.com/harrison/sweeper/internal/history"
	"github.com/harrison/sweeper/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [sweep-id]",
		Short: "List recorded sweeps or show the runs of one sweep",
		Long: `Without arguments, list the most recent sweeps recorded in the history
database. With a sweep id (or a unique prefix of one), show every run of that
sweep with its status and ground state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().String("db", "", "History database path")
	cmd.Flags().String("config", "", "Sweep config whose history database to read")
	cmd.Flags().Int("limit", 20, "Maximum number of sweeps to list (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	dbPath, err := historyDBPath(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No sweep history found at %s\n", dbPath)
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		sweeps, err := store.ListSweeps(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list sweeps: %w", err)
		}
		printSweepList(out, sweeps)
		return nil
	}

	sweep, err := store.FindSweep(ctx, args[0])
	if err != nil {
		return err
	}
	runs, err := store.GetRuns(ctx, sweep.ID)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	printSweep(out, sweep, runs)
	return nil
}

// historyDBPath resolves the database from --db, then --config, then
// $SWEEPER_HOME/history.db.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		return db, nil
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg.History.DBPath, nil
	}
	return config.GetHistoryDBPath()
}

func printSweepList(w io.Writer, sweeps []history.SweepEntry) {
	if len(sweeps) == 0 {
		fmt.Fprintln(w, "No sweeps recorded")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(w, "Recorded sweeps (%d)\n", len(sweeps))
	cyan.Fprintln(w, strings.Repeat("=", 50))
	for _, s := range sweeps {
		fmt.Fprintf(w, "%s  %s  %d runs", s.ID, s.StartedAt.Local().Format(time.DateTime), s.Total)
		green.Fprintf(w, "  %d ok", s.Succeeded)
		if s.Failed > 0 {
			red.Fprintf(w, "  %d failed", s.Failed)
		}
		if s.Skipped > 0 {
			fmt.Fprintf(w, "  %d skipped", s.Skipped)
		}
		if s.Interrupted {
			yellow.Fprint(w, "  interrupted")
		}
		fmt.Fprintln(w)
		if s.ConfigPath != "" {
			fmt.Fprintf(w, "    %s\n", s.ConfigPath)
		}
	}
}

func printSweep(w io.Writer, s *history.SweepEntry, runs []history.RunEntry) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "Sweep %s\n", s.ID)
	cyan.Fprintln(w, strings.Repeat("=", 50))
	if s.ConfigPath != "" {
		fmt.Fprintf(w, "Config:   %s\n", s.ConfigPath)
	}
	fmt.Fprintf(w, "Started:  %s\n", s.StartedAt.Local().Format(time.DateTime))
	if s.FinishedAt != nil {
		fmt.Fprintf(w, "Finished: %s\n", s.FinishedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(w, "Runs:     %d (succeeded %d, failed %d, skipped %d)\n", s.Total, s.Succeeded, s.Failed, s.Skipped)
	if s.Interrupted {
		yellow.Fprintln(w, "Interrupted")
	}
	fmt.Fprintln(w)

	for _, r := range runs {
		fmt.Fprintf(w, "%4d  %-30s ", r.Index, r.RunID)
		switch {
		case r.Status == models.StatusSucceeded:
			green.Fprintf(w, "%-18s", r.Status)
		case r.Status == models.StatusSkipped:
			gray.Fprintf(w, "%-18s", r.Status)
		default:
			red.Fprintf(w, "%-18s", r.Status)
		}
		if r.GroundStateEnergy != nil {
			fmt.Fprintf(w, " E0=%g eV", *r.GroundStateEnergy)
		}
		if r.Error != "" {
			gray.Fprintf(w, " %s", r.Error)
		}
		fmt.Fprintln(w)
	}
}
