package models

import (
	"fmt"
	"strings"
)

// ConfigError reports a malformed sweep configuration: bad variable or
// constant specs, name collisions, run id collisions or an unusable solver
// executable. It aborts the sweep before any run starts.
type ConfigError struct {
	Field   string // Configuration field at fault (optional)
	Message string // Human-readable description
	Err     error  // Underlying error (optional)
}

// NewConfigError creates a ConfigError for field.
func NewConfigError(field, msg string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: msg, Err: err}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config error")
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(" in %s", e.Field))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TemplateError reports an unparsable template or a placeholder that does
// not name a constant or variable.
type TemplateError struct {
	Template    string // Template name, usually the file path
	Placeholder string // Offending placeholder name (optional)
	Line        int    // 1-based line of the offending token (0 if unknown)
	Message     string
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("template %s", e.Template))
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(":%d", e.Line))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Placeholder != "" {
		sb.WriteString(fmt.Sprintf(" %q", e.Placeholder))
	}
	return sb.String()
}

// DirectoryConflictError reports a non-empty run directory when the
// configured policy forbids reusing it.
type DirectoryConflictError struct {
	Path string
}

// Error implements the error interface.
func (e *DirectoryConflictError) Error() string {
	return fmt.Sprintf("run directory %s already exists and is not empty", e.Path)
}

// SolverFailure reports a solver run that exited nonzero, timed out, was
// killed or never started.
type SolverFailure struct {
	ExitCode int // -1 when the process was killed or not started
	TimedOut bool
	Stderr   string // tail of the solver's stderr
	Err      error
}

// Error implements the error interface.
func (e *SolverFailure) Error() string {
	var msg string
	switch {
	case e.TimedOut:
		msg = "solver timed out"
	case e.ExitCode >= 0:
		msg = fmt.Sprintf("solver exited with code %d", e.ExitCode)
	case e.Err != nil:
		msg = fmt.Sprintf("solver failed: %v", e.Err)
	default:
		msg = "solver failed"
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *SolverFailure) Unwrap() error {
	return e.Err
}

// ParseError reports a missing or malformed solver output artifact.
type ParseError struct {
	Path    string
	Line    int // 1-based line number, 0 when the whole file is at fault
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("parse %s", e.Path))
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(":%d", e.Line))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
