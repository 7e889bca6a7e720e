package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for sweeper
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweeper",
		Short: "Parameter sweep orchestrator for the 1D Poisson solver",
		Long: `Sweeper runs the 1D Poisson band diagram solver once for every
combination of the variables declared in a sweep configuration.

Each run gets its own directory with the rendered input file, the solver
artifacts and logs. Results are collected into a sweep report and, when
enabled, recorded in a local history database.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewStatusCommand())

	return cmd
}
