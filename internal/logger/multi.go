package logger

import "github.com/harrison/sweeper/internal/models"

// SweepLogger is the set of events a sweep reports.
type SweepLogger interface {
	LogSweepStart(report models.SweepReport)
	LogRunStart(record models.RunRecord, total int)
	LogRunResult(record models.RunRecord, total int)
	LogSummary(report models.SweepReport)
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger []SweepLogger

// NewMultiLogger drops nil loggers.
func NewMultiLogger(loggers ...SweepLogger) MultiLogger {
	var m MultiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m MultiLogger) LogSweepStart(report models.SweepReport) {
	for _, l := range m {
		l.LogSweepStart(report)
	}
}

func (m MultiLogger) LogRunStart(record models.RunRecord, total int) {
	for _, l := range m {
		l.LogRunStart(record, total)
	}
}

func (m MultiLogger) LogRunResult(record models.RunRecord, total int) {
	for _, l := range m {
		l.LogRunResult(record, total)
	}
}

func (m MultiLogger) LogSummary(report models.SweepReport) {
	for _, l := range m {
		l.LogSummary(report)
	}
}

func (m MultiLogger) Infof(format string, args ...interface{}) {
	for _, l := range m {
		l.Infof(format, args...)
	}
}

func (m MultiLogger) Warnf(format string, args ...interface{}) {
	for _, l := range m {
		l.Warnf(format, args...)
	}
}
