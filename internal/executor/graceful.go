package executor

// graceful.go holds the warn-and-continue helper shared by the orchestrator
// and RunSweep: sink, log and history failures are reported but never stop a
// sweep.

// Warner is the part of Logger used for non-fatal problems.
type Warner interface {
	Warnf(format string, args ...interface{})
}

// GracefulWarn logs a warning if logger is non-nil.
//
// Usage:
//
//	if err := sink.Finish(report); err != nil {
//	    GracefulWarn(o.opts.Logger, "Report sink failed to finish: %v", err)
//	}
func GracefulWarn(logger Warner, format string, args ...interface{}) {
	if logger != nil {
		logger.Warnf(format, args...)
	}
}
