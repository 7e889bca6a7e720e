package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLogger appends sweep progress to a log file.
// It formats lines exactly like ConsoleLogger without colors, and writes a
// header on open so consecutive sweeps are easy to tell apart.
type FileLogger struct {
	*ConsoleLogger
	path string
	file *os.File
	mu   sync.Mutex
}

// NewFileLogger opens path for appending, creating its directory if needed.
// Valid levels match NewConsoleLogger.
func NewFileLogger(path string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fmt.Fprintf(file, "=== Sweeper Run Log ===\nStarted at: %s\n\n", time.Now().Format(time.RFC3339))

	return &FileLogger{
		ConsoleLogger: &ConsoleLogger{
			writer:   file,
			logLevel: normalizeLogLevel(logLevel),
		},
		path: path,
		file: file,
	}, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.path
}

// Close writes a footer and closes the log file. It is safe to call twice.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file == nil {
		return nil
	}

	fl.ConsoleLogger.mutex.Lock()
	fmt.Fprintf(fl.file, "Finished at: %s\n\n", time.Now().Format(time.RFC3339))
	fl.ConsoleLogger.writer = nil
	fl.ConsoleLogger.mutex.Unlock()

	err := fl.file.Close()
	fl.file = nil
	return err
}
