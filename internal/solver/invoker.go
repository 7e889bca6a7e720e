// Package solver runs the external 1D Poisson executable on a rendered input
// file.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/sweeper/internal/models"
)

// stderrTail bounds the stderr excerpt carried in a SolverFailure.
const stderrTail = 512

// DefaultWaitDelay is how long Invoke waits for the solver's output pipes to
// close after the process has been killed.
const DefaultWaitDelay = 2 * time.Second

// ArgStyle selects the argument the solver receives.
type ArgStyle string

const (
	// ArgStem passes the input file name without ".txt", which is what
	// 1D Poisson expects.
	ArgStem ArgStyle = "stem"
	// ArgName passes the input file name.
	ArgName ArgStyle = "name"
	// ArgPath passes the absolute path of the input file.
	ArgPath ArgStyle = "path"
)

// ParseArgStyle validates an input_argument value. The empty string selects
// ArgStem.
func ParseArgStyle(s string) (ArgStyle, error) {
	switch a := ArgStyle(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return ArgStem, nil
	case ArgStem, ArgName, ArgPath:
		return a, nil
	default:
		return "", fmt.Errorf("invalid input_argument %q (want stem, name or path)", s)
	}
}

// Request describes one solver run.
type Request struct {
	// Dir is the run directory; the solver runs with it as working directory.
	Dir string
	// InputPath is the rendered input file inside Dir.
	InputPath string
}

// Result is the outcome of a solver process that was started.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	TimedOut bool
}

// Invoker runs the solver. Implementations return a non-nil Result whenever
// the process was started, and a *models.SolverFailure when it exited
// nonzero, timed out, was killed or could not be started.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// ExecInvoker runs a local executable with os/exec.
// It is safe for concurrent use.
type ExecInvoker struct {
	// Path is the solver executable.
	Path string

	// Arg selects the argument convention. Defaults to ArgStem.
	Arg ArgStyle

	// Timeout bounds each run. Zero means no limit.
	Timeout time.Duration

	// WaitDelay bounds the wait for output pipes after a kill.
	// Defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// NewExecInvoker creates an invoker for the executable at path.
func NewExecInvoker(path string, arg ArgStyle, timeout time.Duration) *ExecInvoker {
	return &ExecInvoker{
		Path:      path,
		Arg:       arg,
		Timeout:   timeout,
		WaitDelay: DefaultWaitDelay,
	}
}

// CheckExecutable fails with a *models.ConfigError when path does not name an
// executable regular file.
func CheckExecutable(path string) error {
	if path == "" {
		return models.NewConfigError("path_1d_poisson", "solver executable is required", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return models.NewConfigError("path_1d_poisson", fmt.Sprintf("solver executable %s not found", path), err)
	}
	if info.IsDir() {
		return models.NewConfigError("path_1d_poisson", fmt.Sprintf("solver executable %s is a directory", path), nil)
	}
	if info.Mode().Perm()&0111 == 0 {
		return models.NewConfigError("path_1d_poisson", fmt.Sprintf("solver executable %s is not executable", path), nil)
	}
	return nil
}

// Argument returns the command line argument for inputPath under style.
func Argument(style ArgStyle, inputPath string) (string, error) {
	switch style {
	case ArgName:
		return filepath.Base(inputPath), nil
	case ArgPath:
		return filepath.Abs(inputPath)
	default:
		return strings.TrimSuffix(filepath.Base(inputPath), ".txt"), nil
	}
}

// Invoke runs the solver once and blocks until it exits.
func (inv *ExecInvoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	arg, err := Argument(inv.Arg, req.InputPath)
	if err != nil {
		return nil, &models.SolverFailure{ExitCode: -1, Err: err}
	}

	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Path, arg)
	cmd.Dir = req.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = inv.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &models.SolverFailure{ExitCode: -1, Err: fmt.Errorf("failed to start %s: %w", inv.Path, err)}
	}
	waitErr := cmd.Wait()

	result := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	switch {
	case waitErr == nil:
		return result, nil
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.TimedOut = true
		return result, &models.SolverFailure{
			ExitCode: result.ExitCode,
			TimedOut: true,
			Stderr:   tail(result.Stderr),
			Err:      fmt.Errorf("exceeded %s", inv.Timeout),
		}
	case ctx.Err() != nil:
		return result, &models.SolverFailure{
			ExitCode: result.ExitCode,
			Stderr:   tail(result.Stderr),
			Err:      fmt.Errorf("killed: %w", ctx.Err()),
		}
	default:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			result.ExitCode = -1
		}
		return result, &models.SolverFailure{
			ExitCode: result.ExitCode,
			Stderr:   tail(result.Stderr),
			Err:      waitErr,
		}
	}
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrTail {
		s = "..." + s[len(s)-stderrTail:]
	}
	return s
}
