package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harrison/sweeper/internal/models"
)

// TestMultiLogger verifies events reach every logger
func TestMultiLogger(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	m := NewMultiLogger(NewConsoleLogger(a, "info"), nil, NewConsoleLogger(b, "info"))
	if len(m) != 2 {
		t.Fatalf("len = %d, want nil logger dropped", len(m))
	}

	m.LogSweepStart(models.SweepReport{SweepID: "s", Total: 1})
	m.LogRunStart(sampleRecord(0, ""), 1)
	m.LogRunResult(sampleRecord(0, models.StatusSucceeded), 1)
	m.Infof("note")
	m.Warnf("careful")
	m.LogSummary(models.SweepReport{SweepID: "s", Total: 1})

	for name, buf := range map[string]*bytes.Buffer{"first": a, "second": b} {
		out := buf.String()
		for _, want := range []string{"Starting sweep s", "succeeded", "[INFO] note", "[WARN] careful", "=== Sweep Summary ==="} {
			if !strings.Contains(out, want) {
				t.Errorf("%s logger missing %q", name, want)
			}
		}
	}
}
