package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/sweeper/internal/config"
	"github.com/harrison/sweeper/internal/executor"
	"github.com/harrison/sweeper/internal/rundir"
	"github.com/harrison/sweeper/internal/solver"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a sweep configuration without running it",
		Long: `Validate a sweep configuration: parameter specs, template placeholders,
filter expression, run id uniqueness and the solver executable.

Lists every run the sweep would perform. Nothing is written to disk.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool("skip-solver-check", false, "Do not require the solver executable to exist")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfig(args[0])
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	plan, err := executor.NewPlan(cfg)
	if err != nil {
		return err
	}

	skipSolver, _ := cmd.Flags().GetBool("skip-solver-check")
	if !skipSolver {
		if err := solver.CheckExecutable(cfg.SolverPath); err != nil {
			return err
		}
	}

	printPlan(out, plan)

	green := color.New(color.FgGreen, color.Bold)
	green.Fprintln(out, "✓ Configuration is valid")
	return nil
}

func printPlan(w io.Writer, plan *executor.Plan) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)

	cfg := plan.Config
	space := plan.Space

	cyan.Fprintf(w, "Sweep: %s\n", cfg.Path)
	fmt.Fprintf(w, "  Template:  %s\n", cfg.FileTemplate)
	fmt.Fprintf(w, "  Output:    %s\n", cfg.DirOutput)
	fmt.Fprintf(w, "  Solver:    %s\n", cfg.SolverPath)
	fmt.Fprintf(w, "  Policy:    %s\n", cfg.ExistingRuns)
	if cfg.Timeout > 0 {
		fmt.Fprintf(w, "  Timeout:   %s\n", cfg.Timeout)
	}
	if plan.Filter != nil {
		fmt.Fprintf(w, "  Filter:    %s\n", plan.Filter.Source())
	}
	fmt.Fprintf(w, "  Placeholders: %s\n", strings.Join(plan.Template.Placeholders(), ", "))
	fmt.Fprintln(w)

	if constants := space.Constants(); len(constants) > 0 {
		cyan.Fprintln(w, "Constants:")
		for _, c := range constants {
			fmt.Fprintf(w, "  %s = %s\n", c.Name, c.Formatted)
		}
		fmt.Fprintln(w)
	}

	if variables := space.Variables(); len(variables) > 0 {
		cyan.Fprintln(w, "Variables:")
		for _, v := range variables {
			values, _ := space.Values(v.Name)
			fmt.Fprintf(w, "  %s: %d values\n", v.Name, len(values))
		}
		fmt.Fprintln(w)
	}

	shape := ""
	if s := space.Shape(); len(s) > 0 {
		parts := make([]string, len(s))
		for i, n := range s {
			parts[i] = fmt.Sprint(n)
		}
		shape = fmt.Sprintf(" (shape %s)", strings.Join(parts, "x"))
	}
	cyan.Fprintf(w, "Runs: %d%s\n", space.Size(), shape)

	for combo := range space.All() {
		line := fmt.Sprintf("  %4d  %s", combo.Index, rundir.RunID(combo))
		match, err := plan.Filter.Match(combo)
		switch {
		case err != nil:
			yellow.Fprintf(w, "%s  (filter error: %v)\n", line, err)
		case !match:
			gray.Fprintf(w, "%s  (filtered)\n", line)
		default:
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
}
