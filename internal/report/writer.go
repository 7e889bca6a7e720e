// Package report persists sweep progress and results in the output directory.
package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harrison/sweeper/internal/filelock"
	"github.com/harrison/sweeper/internal/models"
	"github.com/harrison/sweeper/internal/params"
)

// Files written into the sweep output directory.
const (
	ReportFile      = "sweep_report.json"
	RunsFile        = "runs.jsonl"
	ResultsFile     = "results.json"
	SummaryMarkdown = "summary.md"
	SummaryHTML     = "summary.html"
)

// Writer appends one line per finished run to runs.jsonl and writes the full
// sweep_report.json, results.json and the summaries when the sweep finishes.
// Records carry the ground state and artifact paths, never the mesh arrays,
// so each append is constant size.
type Writer struct {
	dir   string
	space *params.Space
}

// NewWriter writes into dir. space provides the variable axes of results.json.
func NewWriter(dir string, space *params.Space) *Writer {
	return &Writer{dir: dir, space: space}
}

// Begin writes the report header and truncates runs.jsonl.
func (w *Writer) Begin(report *models.SweepReport) error {
	if err := w.writeReport(report); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.dir, RunsFile), nil, 0644); err != nil {
		return fmt.Errorf("write %s: %w", RunsFile, err)
	}
	return nil
}

// Record appends rec to runs.jsonl.
func (w *Writer) Record(_ *models.SweepReport, rec models.RunRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", rec.RunID, err)
	}
	f, err := os.OpenFile(filepath.Join(w.dir, RunsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", RunsFile, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append %s: %w", RunsFile, err)
	}
	return nil
}

// Finish writes the final report, results.json and the summaries.
func (w *Writer) Finish(report *models.SweepReport) error {
	if err := w.writeReport(report); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(w.dir, ResultsFile), BuildResults(w.space, report)); err != nil {
		return err
	}

	md := RenderMarkdown(report)
	if err := filelock.AtomicWrite(filepath.Join(w.dir, SummaryMarkdown), []byte(md)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	html, err := RenderHTML(report)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(filepath.Join(w.dir, SummaryHTML), html); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func (w *Writer) writeReport(report *models.SweepReport) error {
	return writeJSON(filepath.Join(w.dir, ReportFile), report)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadReport reads a sweep_report.json written by Writer. A report that was
// never finished holds no records, so they are rebuilt from the runs.jsonl
// next to it.
func LoadReport(path string) (*models.SweepReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report models.SweepReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	if !report.FinishedAt.IsZero() {
		return &report, nil
	}

	runs, err := LoadRuns(filepath.Join(filepath.Dir(path), RunsFile))
	if errors.Is(err, os.ErrNotExist) {
		return &report, nil
	}
	if err != nil {
		return nil, err
	}
	report.Records = nil
	report.Succeeded, report.Failed, report.Skipped = 0, 0, 0
	for _, rec := range runs {
		report.Add(rec)
	}
	return &report, nil
}

// LoadRuns reads the records appended to a runs.jsonl. A truncated final
// line, left by a process killed mid-write, is ignored.
func LoadRuns(path string) ([]models.RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	defer f.Close()

	var runs []models.RunRecord
	dec := json.NewDecoder(bufio.NewReader(f))
	for {
		var rec models.RunRecord
		err := dec.Decode(&rec)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return runs, nil
		case err != nil:
			return nil, fmt.Errorf("failed to parse runs %s: %w", path, err)
		}
		runs = append(runs, rec)
	}
}
