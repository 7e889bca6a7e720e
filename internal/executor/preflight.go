package executor

import (
	"fmt"

	"github.com/harrison/sweeper/internal/rundir"
	"github.com/harrison/sweeper/internal/solver"
)

// Preflight runs every check that must pass before the first solver run:
// the executable exists and is executable, every template placeholder names
// a constant or variable, and no two combinations share a run id.
// Failures are *models.ConfigError or *models.TemplateError and no run
// directory has been touched when they are returned.
func Preflight(opts Options) error {
	if opts.Space == nil {
		return fmt.Errorf("parameter space is required")
	}
	if opts.Template == nil {
		return fmt.Errorf("template is required")
	}
	if opts.Executable != "" {
		if err := solver.CheckExecutable(opts.Executable); err != nil {
			return err
		}
	}
	if err := opts.Template.Check(opts.Space.Names()); err != nil {
		return err
	}
	return rundir.CheckUnique(opts.Space.All())
}
