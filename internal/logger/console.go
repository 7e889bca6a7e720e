// Package logger provides logging implementations for sweep execution.
//
// Loggers report sweep start, per-run progress and the final summary.
// Implementations are thread-safe and filter messages by level.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/sweeper/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// progressWidth is the width of the inline progress bar in run result lines.
const progressWidth = 20

// ConsoleLogger logs sweep progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a terminal that should receive colors.
// NO_COLOR disables colors through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// Infof logs a formatted info-level message.
func (cl *ConsoleLogger) Infof(format string, args ...interface{}) {
	cl.LogInfo(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.LogWarn(fmt.Sprintf(format, args...))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// write emits pre-formatted lines at the given level.
func (cl *ConsoleLogger) write(level string, lines ...string) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", ts, line))
	}
	cl.writer.Write([]byte(sb.String()))
}

func (cl *ConsoleLogger) paint(attr color.Attribute, s string) string {
	if !cl.colorOutput {
		return s
	}
	return color.New(attr).Sprint(s)
}

// LogSweepStart logs the size and shape of the sweep at INFO level.
// Format: "[HH:MM:SS] Starting sweep <id>: <n> runs (shape AxB)"
func (cl *ConsoleLogger) LogSweepStart(report models.SweepReport) {
	header := fmt.Sprintf("Starting sweep %s: %d runs", shortID(report.SweepID), report.Total)
	if len(report.Shape) > 0 {
		header += fmt.Sprintf(" (shape %s)", formatShape(report.Shape))
	}
	cl.write("info", cl.paint(color.Bold, header))
}

// LogRunStart logs the combination about to run at DEBUG level, and at TRACE
// level every template binding it renders with.
func (cl *ConsoleLogger) LogRunStart(record models.RunRecord, total int) {
	cl.write("debug", fmt.Sprintf("[%d/%d] Running %s %s", record.Index+1, total, record.RunID, record.Combination))

	c := record.Combination
	lines := make([]string, 0, len(c.Constants)+len(c.Variables))
	for _, a := range c.Constants {
		lines = append(lines, fmt.Sprintf("  %s = %s (constant)", a.Name, a.Formatted))
	}
	for _, a := range c.Variables {
		lines = append(lines, fmt.Sprintf("  %s = %s (value %v)", a.Name, a.Formatted, a.Value))
	}
	cl.write("trace", lines...)
}

// LogRunResult logs a finalized run with an inline progress bar.
// Failures are logged at WARN, skips at DEBUG, successes at INFO.
// Format: "[HH:MM:SS] [====    ] 3/12 (25%) x(0.5) succeeded (2s) E0=0.0123 eV"
func (cl *ConsoleLogger) LogRunResult(record models.RunRecord, total int) {
	pb := NewProgressBar(total, progressWidth, cl.colorOutput)
	pb.Update(record.Index + 1)

	var level, outcome string
	switch {
	case record.Status == models.StatusSucceeded:
		level = "info"
		outcome = cl.paint(color.FgGreen, string(record.Status))
	case record.Status == models.StatusSkipped:
		level = "debug"
		outcome = cl.paint(color.FgYellow, string(record.Status))
	default:
		level = "warn"
		outcome = cl.paint(color.FgRed, string(record.Status))
	}

	line := fmt.Sprintf("%s %s %s (%s)", pb.Render(), record.RunID, outcome, formatDuration(record.Duration))
	if gs := groundState(record); gs != "" {
		line += " " + gs
	}
	if record.Error != "" {
		line += ": " + record.Error
	}
	cl.write(level, line)
}

// LogSummary logs the sweep summary at INFO level.
func (cl *ConsoleLogger) LogSummary(report models.SweepReport) {
	lines := []string{
		cl.paint(color.Bold, "=== Sweep Summary ==="),
		fmt.Sprintf("Sweep: %s", report.SweepID),
		fmt.Sprintf("Total runs: %d", report.Total),
		cl.paint(color.FgGreen, fmt.Sprintf("Succeeded: %d", report.Succeeded)),
	}
	failed := fmt.Sprintf("Failed: %d", report.Failed)
	if report.Failed > 0 {
		failed = cl.paint(color.FgRed, failed)
	}
	lines = append(lines, failed, fmt.Sprintf("Skipped: %d", report.Skipped))
	lines = append(lines, fmt.Sprintf("Duration: %s", formatDuration(report.Duration)))
	if report.Interrupted {
		lines = append(lines, cl.paint(color.FgYellow, "Sweep was interrupted; remaining runs were skipped"))
	}

	if failedRecords := report.FailedRecords(); len(failedRecords) > 0 {
		lines = append(lines, cl.paint(color.FgRed, "Failed runs:"))
		for _, rec := range failedRecords {
			lines = append(lines, fmt.Sprintf("  - %s: %s: %s", rec.RunID, rec.Status, rec.Error))
		}
	}
	cl.write("info", lines...)
}

func groundState(record models.RunRecord) string {
	if record.GroundState == nil {
		return ""
	}
	return fmt.Sprintf("E0=%g eV", record.GroundState.Energy)
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, "x")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
