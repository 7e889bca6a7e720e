package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCombination() Combination {
	return Combination{
		Index: 4,
		Variables: []Assignment{
			{Name: "x", Value: 0.5, Formatted: "0.5"},
			{Name: "doping", Value: int64(10), Formatted: "10"},
		},
		Constants: []Assignment{
			{Name: "t", Value: 4.2, Formatted: "4.2"},
		},
	}
}

func TestCombination(t *testing.T) {
	c := sampleCombination()

	assert.Equal(t, map[string]string{"x": "0.5", "doping": "10", "t": "4.2"}, c.Bindings())
	assert.Equal(t, map[string]any{"x": 0.5, "doping": int64(10), "t": 4.2}, c.Values())
	assert.Equal(t, "x=0.5,doping=10", c.Key())
	assert.Equal(t, "{x=0.5,doping=10}", c.String())

	assert.Equal(t, "{}", Combination{}.String())
}

func TestCombinationVariableWinsOverConstant(t *testing.T) {
	c := Combination{
		Variables: []Assignment{{Name: "x", Value: 1.0, Formatted: "1"}},
		Constants: []Assignment{{Name: "x", Value: 2.0, Formatted: "2"}},
	}
	assert.Equal(t, "1", c.Bindings()["x"])
	assert.Equal(t, 1.0, c.Values()["x"])
}

func TestStatusIsFailure(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusSucceeded, false},
		{StatusSkipped, false},
		{"", false},
		{StatusRenderError, true},
		{StatusDirectoryConflict, true},
		{StatusSolverFailure, true},
		{StatusTimeout, true},
		{StatusParseError, true},
		{StatusIOError, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsFailure())
		})
	}
}

func TestRunRecordTransitions(t *testing.T) {
	var r RunRecord
	r.Advance(StageRendered)
	assert.Equal(t, StageRendered, r.Stage)

	r.Fail(StatusSolverFailure, errors.New("exit 3"))
	assert.Equal(t, StageFailed, r.Stage)
	assert.Equal(t, StatusSolverFailure, r.Status)
	assert.Equal(t, "exit 3", r.Error)

	var s RunRecord
	s.Advance(StageRendered)
	s.Skip("dry run")
	assert.Equal(t, StageRendered, s.Stage, "skipping keeps the reached stage")
	assert.Equal(t, StatusSkipped, s.Status)
	assert.Equal(t, "dry run", s.Error)

	var n RunRecord
	n.Fail(StatusParseError, nil)
	assert.Empty(t, n.Error)
}

func TestRunRecordSetOutput(t *testing.T) {
	data := &OutputData{
		Z:                []float64{0, 10, 20},
		EnergyConduction: []float64{0.7, 0.2, 0.4},
		GroundState:      &GroundState{Energy: 0.12, Position: 10},
		Artifacts:        []string{"bands.dat"},
	}

	var r RunRecord
	r.SetOutput(data)
	assert.Same(t, data, r.Output)
	assert.Equal(t, data.GroundState, r.GroundState)
	assert.Equal(t, []string{"bands.dat"}, r.Artifacts)

	encoded, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"ground_state":{"energy_ev":0.12,"position_nm":10}`)
	assert.NotContains(t, string(encoded), "z_nm", "mesh arrays stay out of the record")

	r.SetOutput(nil)
	assert.Nil(t, r.Output)
	assert.Nil(t, r.GroundState)
	assert.Nil(t, r.Artifacts)
}

func TestSweepReport(t *testing.T) {
	report := &SweepReport{Total: 4}
	report.Add(RunRecord{Index: 0, RunID: "x(1)", Status: StatusSucceeded})
	report.Add(RunRecord{Index: 1, RunID: "x(2)", Status: StatusTimeout, Error: "solver timed out"})
	report.Add(RunRecord{Index: 2, RunID: "x(3)", Status: StatusSkipped})
	report.Add(RunRecord{Index: 3, RunID: "x(4)", Status: StatusParseError})

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Records, 4)

	rec := report.Lookup("x(3)")
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.Index)
	assert.Nil(t, report.Lookup("x(9)"))

	failed := report.FailedRecords()
	require.Len(t, failed, 2)
	assert.Equal(t, "x(2)", failed[0].RunID)
	assert.Equal(t, "x(4)", failed[1].RunID)
}

func TestOutputData(t *testing.T) {
	data := &OutputData{
		Z:                []float64{0, 10, 20},
		EnergyConduction: []float64{0.7, 0.2, 0.4},
		DensityElectron:  []float64{0, 1e18, 0},
	}
	assert.Equal(t, 3, data.Points())

	ec, z, ok := data.MinConduction()
	require.True(t, ok)
	assert.Equal(t, 0.2, ec)
	assert.Equal(t, 10.0, z)

	// Two trapezoids of 0.5 * 1e18 cm^-3 * 1e-6 cm each.
	assert.InDelta(t, 1e12, data.SheetDensity(), 1e3)
}

func TestOutputDataEmpty(t *testing.T) {
	var nilData *OutputData
	assert.Equal(t, 0, nilData.Points())
	_, _, ok := nilData.MinConduction()
	assert.False(t, ok)
	assert.Equal(t, 0.0, nilData.SheetDensity())

	single := &OutputData{Z: []float64{0}, EnergyConduction: []float64{1}, DensityElectron: []float64{1e18}}
	assert.Equal(t, 0.0, single.SheetDensity())
	assert.False(t, math.IsNaN(single.SheetDensity()))
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config with field", NewConfigError("timeout", "must be >= 0", nil), "config error in timeout: must be >= 0"},
		{"config with cause", NewConfigError("", "cannot lock", cause), "config error: cannot lock: boom"},
		{"template", &TemplateError{Template: "in.tpl", Line: 3, Message: "unknown placeholder", Placeholder: "x"}, `template in.tpl:3: unknown placeholder "x"`},
		{"template no line", &TemplateError{Template: "in.tpl", Message: "empty"}, "template in.tpl: empty"},
		{"directory", &DirectoryConflictError{Path: "/out/x(1)"}, "run directory /out/x(1) already exists and is not empty"},
		{"solver exit", &SolverFailure{ExitCode: 3, Stderr: "no convergence"}, "solver exited with code 3: no convergence"},
		{"solver timeout", &SolverFailure{ExitCode: -1, TimedOut: true}, "solver timed out"},
		{"solver start", &SolverFailure{ExitCode: -1, Err: cause}, "solver failed: boom"},
		{"solver unknown", &SolverFailure{ExitCode: -1}, "solver failed"},
		{"parse", &ParseError{Path: "a_Out.txt", Line: 7, Message: "malformed row", Err: cause}, "parse a_Out.txt:7: malformed row: boom"},
		{"parse whole file", &ParseError{Path: "a_Out.txt", Message: "no data rows"}, "parse a_Out.txt: no data rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, NewConfigError("f", "m", cause), cause)
	assert.ErrorIs(t, &SolverFailure{ExitCode: -1, Err: cause}, cause)
	assert.ErrorIs(t, &ParseError{Path: "p", Message: "m", Err: cause}, cause)

	var cfgErr *ConfigError
	wrapped := errors.Join(errors.New("outer"), NewConfigError("dir_output", "is required", nil))
	require.ErrorAs(t, wrapped, &cfgErr)
	assert.Equal(t, "dir_output", cfgErr.Field)
}
