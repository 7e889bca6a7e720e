package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/harrison/sweeper/internal/models"
)

var timestampPattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] `)

func sampleRecord(index int, status models.Status) models.RunRecord {
	return models.RunRecord{
		Index: index,
		Combination: models.Combination{
			Index:     index,
			Variables: []models.Assignment{{Name: "x", Value: 0.5, Formatted: "0.5"}},
		},
		RunID:    "x(0.5)",
		Status:   status,
		Duration: 1500 * time.Millisecond,
	}
}

// TestNewConsoleLogger verifies level normalization and color detection
func TestNewConsoleLogger(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "info"},
		{"DEBUG", "debug"},
		{" warn ", "warn"},
		{"verbose", "info"},
		{"trace", "trace"},
	}

	for _, tt := range tests {
		logger := NewConsoleLogger(&bytes.Buffer{}, tt.input)
		if logger.logLevel != tt.want {
			t.Errorf("NewConsoleLogger(%q).logLevel = %q, want %q", tt.input, logger.logLevel, tt.want)
		}
		if logger.colorOutput {
			t.Error("colorOutput enabled for a non-terminal writer")
		}
	}
}

// TestConsoleLoggerLevelFiltering verifies messages below the level are dropped
func TestConsoleLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantTrace bool
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"trace", true, true, true, true},
		{"debug", false, true, true, true},
		{"info", false, false, true, true},
		{"warn", false, false, false, true},
		{"error", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogRunStart(sampleRecord(0, ""), 1)
			logger.Infof("info %d", 2)
			logger.Warnf("warn %d", 3)
			out := buf.String()

			if got := strings.Contains(out, "x = 0.5 (value 0.5)"); got != tt.wantTrace {
				t.Errorf("trace logged = %v, want %v", got, tt.wantTrace)
			}
			if got := strings.Contains(out, "[1/1] Running x(0.5)"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "[INFO] info 2"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "[WARN] warn 3"); got != tt.wantWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

// TestLogRunStartTraceBindings verifies every template binding is traced
func TestLogRunStartTraceBindings(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "trace")
	record := sampleRecord(1, "")
	record.Combination.Constants = []models.Assignment{{Name: "t", Value: 4.2, Formatted: "4.2"}}
	record.Combination.Variables = append(record.Combination.Variables,
		models.Assignment{Name: "doping", Value: int64(10), Formatted: "1.0e1"})
	logger.LogRunStart(record, 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"[2/4] Running x(0.5) {x=0.5,doping=1.0e1}",
		"  t = 4.2 (constant)",
		"  x = 0.5 (value 0.5)",
		"  doping = 1.0e1 (value 10)",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i, line := range lines {
		if !timestampPattern.MatchString(line) {
			t.Errorf("line %d missing timestamp: %q", i, line)
		}
		if got := timestampPattern.ReplaceAllString(line, ""); got != want[i] {
			t.Errorf("line %d = %q, want %q", i, got, want[i])
		}
	}
}

// TestConsoleLoggerNilWriter verifies a nil writer discards output
func TestConsoleLoggerNilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	logger.LogInfo("discarded")
	logger.LogSummary(models.SweepReport{})
	logger.LogRunResult(sampleRecord(0, models.StatusSucceeded), 1)
}

// TestLogSweepStart verifies the sweep header
func TestLogSweepStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogSweepStart(models.SweepReport{
		SweepID: "0123456789abcdef",
		Total:   12,
		Shape:   []int{3, 4},
	})

	out := buf.String()
	if !timestampPattern.MatchString(out) {
		t.Errorf("missing timestamp: %q", out)
	}
	if !strings.Contains(out, "Starting sweep 01234567: 12 runs (shape 3x4)") {
		t.Errorf("unexpected header: %q", out)
	}
}

// TestLogRunResult verifies status levels and the inline progress bar
func TestLogRunResult(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		record   func() models.RunRecord
		contains []string
		empty    bool
	}{
		{
			name:  "success with ground state",
			level: "info",
			record: func() models.RunRecord {
				r := sampleRecord(2, models.StatusSucceeded)
				r.SetOutput(&models.OutputData{GroundState: &models.GroundState{Energy: 0.0123}})
				return r
			},
			contains: []string{"3/4 (75%)", "x(0.5) succeeded (1s)", "E0=0.0123 eV"},
		},
		{
			name:  "failure carries error",
			level: "info",
			record: func() models.RunRecord {
				r := sampleRecord(0, models.StatusSolverFailure)
				r.Error = "solver exited with code 3"
				return r
			},
			contains: []string{"1/4 (25%)", "solver_failure", ": solver exited with code 3"},
		},
		{
			name:  "skip hidden at info",
			level: "info",
			record: func() models.RunRecord {
				return sampleRecord(1, models.StatusSkipped)
			},
			empty: true,
		},
		{
			name:  "skip shown at debug",
			level: "debug",
			record: func() models.RunRecord {
				r := sampleRecord(1, models.StatusSkipped)
				r.Error = "excluded by filter"
				return r
			},
			contains: []string{"skipped", "excluded by filter"},
		},
		{
			name:  "failure shown at warn",
			level: "warn",
			record: func() models.RunRecord {
				return sampleRecord(3, models.StatusTimeout)
			},
			contains: []string{"4/4 (100%)", "timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogRunResult(tt.record(), 4)
			out := buf.String()

			if tt.empty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

// TestLogRunStart verifies run start is a debug message
func TestLogRunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogRunStart(sampleRecord(0, ""), 2)
	if buf.Len() != 0 {
		t.Errorf("run start logged at info: %q", buf.String())
	}

	NewConsoleLogger(buf, "debug").LogRunStart(sampleRecord(0, ""), 2)
	if !strings.Contains(buf.String(), "[1/2] Running x(0.5) {x=0.5}") {
		t.Errorf("unexpected run start: %q", buf.String())
	}
}

// TestLogSummary verifies counts and the failed run listing
func TestLogSummary(t *testing.T) {
	report := models.SweepReport{SweepID: "sweep-1", Total: 3, Duration: 90 * time.Second, Interrupted: true}
	ok := sampleRecord(0, models.StatusSucceeded)
	failed := sampleRecord(1, models.StatusParseError)
	failed.RunID = "x(0.6)"
	failed.Error = "no data rows"
	report.Add(ok)
	report.Add(failed)
	report.Add(sampleRecord(2, models.StatusSkipped))

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogSummary(report)
	out := buf.String()

	for _, want := range []string{
		"=== Sweep Summary ===",
		"Sweep: sweep-1",
		"Total runs: 3",
		"Succeeded: 1",
		"Failed: 1",
		"Skipped: 1",
		"Duration: 1m30s",
		"Sweep was interrupted",
		"Failed runs:",
		"  - x(0.6): parse_error: no data rows",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !timestampPattern.MatchString(line) {
			t.Errorf("line without timestamp: %q", line)
		}
	}
}

// TestFormatDuration tests duration formatting
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{0, "0ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
		{3 * time.Hour, "3h"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
