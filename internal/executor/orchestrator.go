package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/params"
	"github.com/harrison/sweeper/internal/render"
	"github.com/harrison/sweeper/internal/rundir"
	"github.com/harrison/sweeper/internal/solver"
)

// Skip reasons recorded on RunRecord.Error.
const (
	ReasonInterrupted = "sweep interrupted"
	ReasonFiltered    = "excluded by filter"
	ReasonExisting    = "run directory already populated; previous results kept"
	ReasonDryRun      = "dry run"
)

// Logger receives sweep progress. Every method must be safe to call from the
// orchestrator goroutine; the signal watcher only uses Warnf.
type Logger interface {
	LogSweepStart(report models.SweepReport)
	LogRunStart(record models.RunRecord, total int)
	LogRunResult(record models.RunRecord, total int)
	LogSummary(report models.SweepReport)
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Sink persists sweep progress. Record is called once per finalized run in
// combination order, so partial results survive an interrupted sweep.
type Sink interface {
	Begin(report *models.SweepReport) error
	Record(report *models.SweepReport, record models.RunRecord) error
	Finish(report *models.SweepReport) error
}

// OutputParser reads the solver artifacts of a run directory.
type OutputParser interface {
	Parse(dir, stem string) (*models.OutputData, error)
}

// Options configures an Orchestrator.
type Options struct {
	Space     *params.Space
	Template  *render.Template
	Invoker   solver.Invoker
	Parser    OutputParser
	OutputDir string

	// Executable is checked by Preflight when set.
	Executable string

	Policy rundir.Policy
	Filter *Filter
	DryRun bool

	SweepID    string
	ConfigPath string

	Sinks  []Sink
	Logger Logger

	// Signals overrides the SIGINT/SIGTERM subscription, mainly for tests.
	Signals <-chan os.Signal
}

// Orchestrator drives a sweep: one run per combination, sequentially, in
// combination order.
type Orchestrator struct {
	opts     Options
	stopping atomic.Bool
	kill     atomic.Pointer[context.CancelFunc]
}

// NewOrchestrator validates the required options.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Space == nil:
		return nil, fmt.Errorf("parameter space is required")
	case opts.Template == nil:
		return nil, fmt.Errorf("template is required")
	case opts.Invoker == nil:
		return nil, fmt.Errorf("solver invoker is required")
	case opts.Parser == nil:
		return nil, fmt.Errorf("output parser is required")
	case opts.OutputDir == "":
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Policy == "" {
		opts.Policy = rundir.PolicyOverwrite
	}
	return &Orchestrator{opts: opts}, nil
}

// Stop asks the sweep to end after the in-flight run. Remaining combinations
// are recorded as skipped.
func (o *Orchestrator) Stop() {
	o.stopping.Store(true)
}

// Stopping reports whether Stop has been called.
func (o *Orchestrator) Stopping() bool {
	return o.stopping.Load()
}

// Kill stops the sweep and terminates the in-flight solver.
func (o *Orchestrator) Kill() {
	o.Stop()
	if cancel := o.kill.Load(); cancel != nil {
		(*cancel)()
	}
}

// Run executes the sweep. Configuration problems found by Preflight are
// returned before any run starts. Individual run failures never abort the
// sweep; they are recorded on the report, which is always returned when the
// sweep started.
//
// The first SIGINT/SIGTERM lets the in-flight run finish and skips the rest;
// a second one also kills the in-flight solver.
func (o *Orchestrator) Run(ctx context.Context) (*models.SweepReport, error) {
	if err := Preflight(o.opts); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.kill.Store(&cancel)

	sigChan := o.opts.Signals
	if sigChan == nil {
		ch := make(chan os.Signal, 2)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigChan = ch
	}

	done := make(chan struct{})
	defer close(done)
	go o.watchSignals(sigChan, done)

	space := o.opts.Space
	report := &models.SweepReport{
		SweepID:    o.opts.SweepID,
		ConfigPath: o.opts.ConfigPath,
		StartedAt:  time.Now(),
		Total:      space.Size(),
		Shape:      space.Shape(),
	}
	if report.SweepID == "" {
		report.SweepID = uuid.NewString()
	}

	o.logSweepStart(*report)
	for _, sink := range o.opts.Sinks {
		if err := sink.Begin(report); err != nil {
			o.warnf("Report sink failed to start: %v", err)
		}
	}

	for combo := range space.All() {
		var record models.RunRecord
		if o.Stopping() || ctx.Err() != nil {
			report.Interrupted = true
			record = o.skipped(combo, ReasonInterrupted)
		} else {
			record = o.runOne(runCtx, combo)
		}

		report.Add(record)
		if o.opts.Logger != nil {
			o.opts.Logger.LogRunResult(record, report.Total)
		}
		for _, sink := range o.opts.Sinks {
			if err := sink.Record(report, record); err != nil {
				o.warnf("Failed to persist run %s: %v", record.RunID, err)
			}
		}
	}

	report.FinishedAt = time.Now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)

	for _, sink := range o.opts.Sinks {
		if err := sink.Finish(report); err != nil {
			o.warnf("Report sink failed to finish: %v", err)
		}
	}
	if o.opts.Logger != nil {
		o.opts.Logger.LogSummary(*report)
	}

	return report, nil
}

func (o *Orchestrator) watchSignals(sigChan <-chan os.Signal, done <-chan struct{}) {
	received := 0
	for {
		select {
		case sig := <-sigChan:
			received++
			if received == 1 {
				o.warnf("Received %v, finishing the current run; send again to abort it", sig)
				o.Stop()
				continue
			}
			o.warnf("Received %v again, terminating the solver", sig)
			o.Kill()
			return
		case <-done:
			return
		}
	}
}

func (o *Orchestrator) newRecord(combo models.Combination) models.RunRecord {
	id := rundir.RunID(combo)
	return models.RunRecord{
		Index:       combo.Index,
		Combination: combo,
		RunID:       id,
		RunDir:      rundir.New(o.opts.OutputDir, id, o.opts.Policy).Path,
		Stage:       models.StagePending,
		StartedAt:   time.Now(),
	}
}

func (o *Orchestrator) skipped(combo models.Combination, reason string) models.RunRecord {
	record := o.newRecord(combo)
	record.Skip(reason)
	return record
}

// runOne moves a single combination through render -> invoke -> parse.
// Every failure is recorded on the returned record; nothing is returned as
// an error.
func (o *Orchestrator) runOne(ctx context.Context, combo models.Combination) (record models.RunRecord) {
	record = o.newRecord(combo)
	defer func() {
		record.Duration = time.Since(record.StartedAt)
	}()

	match, err := o.opts.Filter.Match(combo)
	if err != nil {
		o.warnf("%v; running %s anyway", err, record.RunID)
	} else if !match {
		record.Skip(ReasonFiltered)
		return record
	}

	if o.opts.Logger != nil {
		o.opts.Logger.LogRunStart(record, o.opts.Space.Size())
	}

	text, err := o.opts.Template.Render(combo.Bindings())
	if err != nil {
		record.Fail(models.StatusRenderError, err)
		return record
	}

	dir := rundir.New(o.opts.OutputDir, record.RunID, o.opts.Policy)
	if err := dir.Prepare(); err != nil {
		if errors.Is(err, rundir.ErrExisting) {
			record.Skip(ReasonExisting)
			if data, perr := o.opts.Parser.Parse(dir.Path, dir.Stem()); perr == nil {
				record.SetOutput(data)
				if _, err := os.Stat(dir.OutputPath()); err == nil {
					record.OutputPath = dir.OutputPath()
				}
			}
			return record
		}
		record.Fail(models.StatusDirectoryConflict, err)
		return record
	}

	inputPath, err := dir.WriteInput(text)
	if err != nil {
		record.Fail(models.StatusIOError, err)
		return record
	}
	record.Advance(models.StageRendered)

	if o.opts.DryRun {
		record.Skip(ReasonDryRun)
		return record
	}

	result, invokeErr := o.opts.Invoker.Invoke(ctx, solver.Request{Dir: dir.Path, InputPath: inputPath})
	if result != nil {
		code := result.ExitCode
		record.ExitCode = &code
		stdoutPath, stderrPath, err := dir.SaveLogs(result.Stdout, result.Stderr)
		if err != nil {
			o.warnf("Run %s: %v", record.RunID, err)
		} else {
			record.StdoutPath, record.StderrPath = stdoutPath, stderrPath
		}
	}
	if invokeErr != nil {
		var failure *models.SolverFailure
		if errors.As(invokeErr, &failure) && failure.TimedOut {
			record.Fail(models.StatusTimeout, invokeErr)
		} else {
			record.Fail(models.StatusSolverFailure, invokeErr)
		}
		return record
	}
	record.Advance(models.StageInvoked)

	data, err := o.opts.Parser.Parse(dir.Path, dir.Stem())
	if err != nil {
		record.Fail(models.StatusParseError, err)
		return record
	}
	record.SetOutput(data)
	if path, err := dir.SaveOutput(data); err != nil {
		o.warnf("Run %s: %v", record.RunID, err)
	} else {
		record.OutputPath = path
	}
	record.Advance(models.StageParsed)

	record.Advance(models.StageDone)
	record.Status = models.StatusSucceeded
	return record
}

func (o *Orchestrator) logSweepStart(report models.SweepReport) {
	if o.opts.Logger != nil {
		o.opts.Logger.LogSweepStart(report)
	}
}

func (o *Orchestrator) warnf(format string, args ...interface{}) {
	GracefulWarn(o.opts.Logger, format, args...)
}
