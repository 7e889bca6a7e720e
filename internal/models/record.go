package models

import "time"

// Stage tracks how far a run progressed through render -> invoke -> parse.
type Stage string

const (
	StagePending  Stage = "pending"
	StageRendered Stage = "rendered"
	StageInvoked  Stage = "invoked"
	StageParsed   Stage = "parsed"
	StageDone     Stage = "done"
	StageFailed   Stage = "failed"
)

// Status is the final outcome of a run.
type Status string

const (
	StatusSucceeded         Status = "succeeded"
	StatusRenderError       Status = "render_error"
	StatusDirectoryConflict Status = "directory_conflict"
	StatusSolverFailure     Status = "solver_failure"
	StatusTimeout           Status = "timeout"
	StatusParseError        Status = "parse_error"
	StatusIOError           Status = "io_error"
	StatusSkipped           Status = "skipped"
)

// IsFailure reports whether the status counts as a failed run.
func (s Status) IsFailure() bool {
	switch s {
	case StatusSucceeded, StatusSkipped, "":
		return false
	default:
		return true
	}
}

// RunRecord is the outcome of a single combination.
// It is created when the run starts and updated once per stage by the
// orchestrator loop only.
type RunRecord struct {
	Index       int         `json:"index"`
	Combination Combination `json:"combination"`
	RunID       string      `json:"run_id"`
	RunDir      string      `json:"run_dir"`
	Stage       Stage       `json:"stage"`
	Status      Status      `json:"status"`
	ExitCode    *int        `json:"exit_code,omitempty"`
	Error       string      `json:"error,omitempty"`

	// Output is the parsed band diagram. It stays in memory; the report
	// carries GroundState, Artifacts and OutputPath instead of the mesh.
	Output      *OutputData  `json:"-"`
	GroundState *GroundState `json:"ground_state,omitempty"`
	Artifacts   []string     `json:"artifacts,omitempty"`
	OutputPath  string       `json:"output_path,omitempty"`

	StdoutPath string        `json:"stdout_path,omitempty"`
	StderrPath string        `json:"stderr_path,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Advance moves the record to the next stage.
func (r *RunRecord) Advance(stage Stage) {
	r.Stage = stage
}

// Fail finalizes the record with a failure status and the error text.
func (r *RunRecord) Fail(status Status, err error) {
	r.Stage = StageFailed
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}

// SetOutput attaches parsed solver output to the record.
func (r *RunRecord) SetOutput(data *OutputData) {
	r.Output = data
	r.GroundState = nil
	r.Artifacts = nil
	if data != nil {
		r.GroundState = data.GroundState
		r.Artifacts = data.Artifacts
	}
}

// Skip finalizes the record as skipped with the given reason.
func (r *RunRecord) Skip(reason string) {
	r.Status = StatusSkipped
	r.Error = reason
}

// SweepReport aggregates every RunRecord of a sweep in combination order.
type SweepReport struct {
	SweepID     string        `json:"sweep_id"`
	ConfigPath  string        `json:"config_path,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at,omitempty"`
	Duration    time.Duration `json:"duration"`
	Total       int           `json:"total"`
	Shape       []int         `json:"shape"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Interrupted bool          `json:"interrupted"`
	Records     []RunRecord   `json:"records"`
}

// Add appends a finalized record and updates the summary counts.
func (r *SweepReport) Add(record RunRecord) {
	r.Records = append(r.Records, record)
	switch {
	case record.Status == StatusSucceeded:
		r.Succeeded++
	case record.Status == StatusSkipped:
		r.Skipped++
	case record.Status.IsFailure():
		r.Failed++
	}
}

// Lookup returns the record for runID, or nil.
func (r *SweepReport) Lookup(runID string) *RunRecord {
	for i := range r.Records {
		if r.Records[i].RunID == runID {
			return &r.Records[i]
		}
	}
	return nil
}

// FailedRecords returns the records whose status is a failure.
func (r *SweepReport) FailedRecords() []RunRecord {
	var failed []RunRecord
	for _, rec := range r.Records {
		if rec.Status.IsFailure() {
			failed = append(failed, rec)
		}
	}
	return failed
}
