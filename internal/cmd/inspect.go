package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/sweeper/internal/output"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <run-dir>",
		Short: "Summarize the solver output of a run directory",
		Long: `Parse the band diagram written by the solver in a run directory and
print its mesh, conduction band minimum, ground state and sheet density.

The input stem defaults to the directory name, which is the run id.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().String("stem", "", "Input file stem (default: run directory name)")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dir := args[0]

	stem, _ := cmd.Flags().GetString("stem")
	if stem == "" {
		stem = filepath.Base(filepath.Clean(dir))
	}

	data, err := output.NewParser().Parse(dir, stem)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(out, "Output: %s\n", data.Source)
	fmt.Fprintf(out, "  Points:       %d\n", data.Points())
	fmt.Fprintf(out, "  Z range:      %g .. %g nm\n", data.Z[0], data.Z[len(data.Z)-1])
	if ec, z, ok := data.MinConduction(); ok {
		fmt.Fprintf(out, "  Min Ec:       %g eV at %g nm\n", ec, z)
	}
	if gs := data.GroundState; gs != nil {
		fmt.Fprintf(out, "  Ground state: %g eV at %g nm\n", gs.Energy, gs.Position)
	} else {
		gray.Fprintln(out, "  Ground state: none reported")
	}
	fmt.Fprintf(out, "  Sheet density: %.4g cm^-2\n", data.SheetDensity())

	if len(data.Artifacts) > 0 {
		fmt.Fprintln(out, "  Artifacts:")
		for _, a := range data.Artifacts {
			fmt.Fprintf(out, "    - %s\n", a)
		}
	}
	return nil
}
