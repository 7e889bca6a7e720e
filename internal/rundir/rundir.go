// Package rundir derives run identifiers and manages the isolated directory
// each run writes its input, solver artifacts and logs into.
package rundir

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/sweeper/internal/filelock"
	"github.com/harrison/sweeper/internal/models"
)

// BaseRunID names the single run of a sweep without variables.
const BaseRunID = "base"

// Log file names retained in every run directory.
const (
	StdoutLog = "solver.stdout.log"
	StderrLog = "solver.stderr.log"

	// OutputFile holds the parsed solver output of the run as JSON.
	OutputFile = "output.json"
)

// Policy decides what Prepare does with a run directory that already has
// content.
type Policy string

const (
	// PolicyOverwrite clears the directory and reuses it.
	PolicyOverwrite Policy = "overwrite"
	// PolicyFail records a directory conflict for the run.
	PolicyFail Policy = "fail"
	// PolicySkip leaves the directory alone so earlier output can be reused.
	PolicySkip Policy = "skip"
)

// ParsePolicy validates a policy name. The empty string selects
// PolicyOverwrite.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyOverwrite, nil
	case PolicyOverwrite, PolicyFail, PolicySkip:
		return p, nil
	default:
		return "", fmt.Errorf("invalid existing_runs policy %q (want overwrite, fail or skip)", s)
	}
}

// ErrExisting is returned by Prepare under PolicySkip when the directory
// already holds a previous run.
var ErrExisting = errors.New("run directory already populated")

// RunID derives the directory name of a combination: one name(value) token
// per variable, in declaration order, joined with "_". Characters that are
// unsafe in file names are replaced with "_".
func RunID(c models.Combination) string {
	if len(c.Variables) == 0 {
		return BaseRunID
	}
	tokens := make([]string, len(c.Variables))
	for i, a := range c.Variables {
		tokens[i] = sanitize(a.Name) + "(" + sanitize(a.Formatted) + ")"
	}
	return strings.Join(tokens, "_")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("._()+=-", r):
			return r
		default:
			return '_'
		}
	}, s)
}

// CheckUnique fails with a *models.ConfigError when two combinations map to
// the same run id, which happens when a format pattern rounds distinct values
// to the same text.
func CheckUnique(combos iter.Seq[models.Combination]) error {
	seen := make(map[string]models.Combination)
	for c := range combos {
		id := RunID(c)
		if prev, ok := seen[id]; ok {
			return models.NewConfigError("variables",
				fmt.Sprintf("run id %q is shared by combinations %d and %d; use a format with more precision", id, prev.Index, c.Index), nil)
		}
		seen[id] = c
	}
	return nil
}

// Dir is the output directory of one run.
type Dir struct {
	ID     string
	Path   string
	policy Policy
}

// New returns the run directory for runID under base. Nothing is created
// until Prepare.
func New(base, runID string, policy Policy) *Dir {
	if policy == "" {
		policy = PolicyOverwrite
	}
	return &Dir{
		ID:     runID,
		Path:   filepath.Join(base, runID),
		policy: policy,
	}
}

// Stem returns the input file name without extension.
func (d *Dir) Stem() string {
	return d.ID
}

// InputName returns the input file name.
func (d *Dir) InputName() string {
	return d.ID + ".txt"
}

// InputPath returns the absolute or base-relative path of the input file.
func (d *Dir) InputPath() string {
	return filepath.Join(d.Path, d.InputName())
}

// Prepare creates the directory or applies the policy to an existing one.
func (d *Dir) Prepare() error {
	entries, err := os.ReadDir(d.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(d.Path, 0755); err != nil {
			return fmt.Errorf("failed to create run directory %s: %w", d.Path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read run directory %s: %w", d.Path, err)
	case len(entries) == 0:
		return nil
	}

	switch d.policy {
	case PolicyFail:
		return &models.DirectoryConflictError{Path: d.Path}
	case PolicySkip:
		return ErrExisting
	default:
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(d.Path, e.Name())); err != nil {
				return fmt.Errorf("failed to clear run directory %s: %w", d.Path, err)
			}
		}
		return nil
	}
}

// WriteInput writes the rendered input file and returns its path.
func (d *Dir) WriteInput(text string) (string, error) {
	path := d.InputPath()
	if err := filelock.AtomicWrite(path, []byte(text)); err != nil {
		return "", fmt.Errorf("failed to write input file: %w", err)
	}
	return path, nil
}

// SaveLogs retains the solver's captured stdout and stderr next to its
// artifacts and returns their paths.
func (d *Dir) SaveLogs(stdout, stderr []byte) (stdoutPath, stderrPath string, err error) {
	stdoutPath = filepath.Join(d.Path, StdoutLog)
	stderrPath = filepath.Join(d.Path, StderrLog)
	if err := os.WriteFile(stdoutPath, stdout, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save solver stdout: %w", err)
	}
	if err := os.WriteFile(stderrPath, stderr, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save solver stderr: %w", err)
	}
	return stdoutPath, stderrPath, nil
}

// SaveOutput writes the parsed solver output as OutputFile and returns its
// path.
func (d *Dir) SaveOutput(data *models.OutputData) (string, error) {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode solver output: %w", err)
	}
	path := d.OutputPath()
	if err := filelock.AtomicWrite(path, append(encoded, '\n')); err != nil {
		return "", fmt.Errorf("failed to save solver output: %w", err)
	}
	return path, nil
}

// OutputPath returns the path of OutputFile.
func (d *Dir) OutputPath() string {
	return filepath.Join(d.Path, OutputFile)
}
