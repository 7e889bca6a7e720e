package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/report"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <output-dir> [run-id]",
		Short: "Show the progress of a sweep from its output directory",
		Long: `Read the sweep report in an output directory and print its counts and
failed runs. A sweep that is still running, or was killed, is reconstructed
from the runs finished so far.

With a run id, print that run's record instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runStatus,
	}
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	rep, err := report.LoadReport(filepath.Join(args[0], report.ReportFile))
	if err != nil {
		return err
	}

	if len(args) == 2 {
		rec := rep.Lookup(args[1])
		if rec == nil {
			return fmt.Errorf("run %q not found in sweep %s", args[1], rep.SweepID)
		}
		printRunRecord(out, rec)
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(out, "Sweep %s\n", rep.SweepID)
	cyan.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Started:  %s\n", rep.StartedAt.Local().Format(time.DateTime))
	switch {
	case !rep.FinishedAt.IsZero():
		fmt.Fprintf(out, "Finished: %s\n", rep.FinishedAt.Local().Format(time.DateTime))
	default:
		yellow.Fprintln(out, "Not finished")
	}
	fmt.Fprintf(out, "Runs:     %d of %d done (succeeded %d, failed %d, skipped %d)\n",
		len(rep.Records), rep.Total, rep.Succeeded, rep.Failed, rep.Skipped)
	if rep.Interrupted {
		yellow.Fprintln(out, "Interrupted")
	}

	if failed := rep.FailedRecords(); len(failed) > 0 {
		red.Fprintln(out, "Failed runs:")
		for _, rec := range failed {
			fmt.Fprintf(out, "  - %s: %s: %s\n", rec.RunID, rec.Status, rec.Error)
		}
	}
	return nil
}

func printRunRecord(out io.Writer, rec *models.RunRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(out, "Run %s\n", rec.RunID)
	fmt.Fprintf(out, "  Index:        %d\n", rec.Index)
	fmt.Fprintf(out, "  Parameters:   %s\n", rec.Combination)
	fmt.Fprintf(out, "  Status:       %s (stage %s)\n", rec.Status, rec.Stage)
	fmt.Fprintf(out, "  Duration:     %s\n", rec.Duration)
	if rec.ExitCode != nil {
		fmt.Fprintf(out, "  Exit code:    %d\n", *rec.ExitCode)
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "  Error:        %s\n", rec.Error)
	}
	if gs := rec.GroundState; gs != nil {
		fmt.Fprintf(out, "  Ground state: %g eV at %g nm\n", gs.Energy, gs.Position)
	} else {
		gray.Fprintln(out, "  Ground state: none reported")
	}
	if rec.OutputPath != "" {
		fmt.Fprintf(out, "  Output:       %s\n", rec.OutputPath)
	}
	fmt.Fprintf(out, "  Directory:    %s\n", rec.RunDir)
}
