// Package log provides a structured logging interface for titanic-ml operations.
//
// The interface is slog-compatible so that the backend can be switched while
// keeping ML-specific structured attributes (operation, data shape, metrics)
// consistent across packages. The default backend is zerolog.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "LogisticRegression",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("Fold completed",
//	    log.OperationKey, log.OperationFit,
//	    log.FoldKey, 3,
//	    log.AccuracyKey, 0.81,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key-value pairs. With returns a child logger
// that carries the given fields on every entry.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// An error value may be passed as the first field.
	//
	//   logger.Error("Fold failed", err, log.FoldKey, 2)
	Error(msg string, fields ...any)

	// With creates a new logger with additional contextual fields.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits entries at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents the severity level of log messages.
// The values match log/slog so levels convert directly.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider defines an interface for obtaining logger instances.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers from this provider.
	SetLevel(level Level)
}
