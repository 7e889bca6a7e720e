package executor

import (
	"context"
	"errors"
	"os"

	"github.com/harrison/sweeper/internal/config"
	"github.com/harrison/sweeper/internal/filelock"
	"github.com/harrison/sweeper/internal/history"
	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/output"
	"github.com/harrison/sweeper/internal/params"
	"github.com/harrison/sweeper/internal/render"
	"github.com/harrison/sweeper/internal/report"
	"github.com/harrison/sweeper/internal/solver"
)

// RunOptions adjusts a sweep started with RunSweep.
type RunOptions struct {
	// DryRun renders every input file without invoking the solver. The
	// executable is not required to exist.
	DryRun bool

	Logger Logger

	// Invoker replaces the os/exec solver invoker.
	Invoker solver.Invoker

	// Sinks are notified in addition to the report writer and history store.
	Sinks []Sink

	// Signals overrides the SIGINT/SIGTERM subscription.
	Signals <-chan os.Signal

	// SweepID overrides the generated sweep id.
	SweepID string
}

// Plan is a validated sweep ready to run.
type Plan struct {
	Config   *config.Config
	Space    *params.Space
	Template *render.Template
	Filter   *Filter
}

// NewPlan validates cfg and builds the parameter space, template and filter.
// Nothing is written to disk.
func NewPlan(cfg *config.Config) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	space, err := params.NewSpace(cfg.Constants, cfg.Variables)
	if err != nil {
		return nil, err
	}
	tmpl, err := render.ParseFile(cfg.FileTemplate)
	if err != nil {
		return nil, err
	}
	filter, err := CompileFilter(cfg.Filter, space.At(0))
	if err != nil {
		return nil, err
	}
	plan := &Plan{Config: cfg, Space: space, Template: tmpl, Filter: filter}

	if err := Preflight(Options{Space: space, Template: tmpl}); err != nil {
		return nil, err
	}
	return plan, nil
}

// RunSweep runs every combination of the sweep described by cfg.
//
// Configuration problems are returned before any run directory is touched,
// including a missing solver executable and an output directory locked by
// another sweep. Otherwise the report is returned with one record per
// combination; failed runs are recorded on it, not returned as errors.
func RunSweep(ctx context.Context, cfg *config.Config, opts RunOptions) (*models.SweepReport, error) {
	plan, err := NewPlan(cfg)
	if err != nil {
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	argStyle, err := cfg.ArgStyle()
	if err != nil {
		return nil, err
	}

	executable := cfg.SolverPath
	if opts.DryRun {
		executable = ""
	}
	if executable != "" {
		if err := solver.CheckExecutable(executable); err != nil {
			return nil, err
		}
	}

	lock, err := filelock.LockDir(cfg.DirOutput)
	if err != nil {
		var locked *filelock.ErrLocked
		if errors.As(err, &locked) {
			return nil, models.NewConfigError("dir_output", "another sweep is writing to this directory", err)
		}
		return nil, models.NewConfigError("dir_output", "cannot lock output directory", err)
	}
	defer lock.Unlock()

	sinks := []Sink{report.NewWriter(cfg.DirOutput, plan.Space)}
	infof(opts.Logger, "Writing runs to %s", cfg.DirOutput)
	if cfg.History.Enabled && !opts.DryRun {
		store, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			GracefulWarn(opts.Logger, "Run history disabled: %v", err)
		} else {
			defer store.Close()
			sinks = append(sinks, history.NewSink(store))
			infof(opts.Logger, "Recording history in %s", cfg.History.DBPath)
		}
	}
	sinks = append(sinks, opts.Sinks...)

	invoker := opts.Invoker
	if invoker == nil {
		invoker = solver.NewExecInvoker(cfg.SolverPath, argStyle, cfg.Timeout)
	}

	orch, err := NewOrchestrator(Options{
		Space:      plan.Space,
		Template:   plan.Template,
		Invoker:    invoker,
		Parser:     output.NewParser(),
		OutputDir:  cfg.DirOutput,
		Executable: executable,
		Policy:     policy,
		Filter:     plan.Filter,
		DryRun:     opts.DryRun,
		SweepID:    opts.SweepID,
		ConfigPath: cfg.Path,
		Sinks:      sinks,
		Logger:     opts.Logger,
		Signals:    opts.Signals,
	})
	if err != nil {
		return nil, err
	}
	return orch.Run(ctx)
}

func infof(l Logger, format string, args ...interface{}) {
	if l != nil {
		l.Infof(format, args...)
	}
}
