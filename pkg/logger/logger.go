// Package logger provides structured logging for tmplcheck runs.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	// LogFilePermissions defines the file permissions for log files (owner read/write only).
	LogFilePermissions = 0o600

	logDirPermissions = 0o700
)

// Logger provides structured logging interface.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...any)

	// With returns a new logger with additional key-value pairs.
	With(keysAndValues ...any) Logger
}

// SlogAdapter implements Logger on top of log/slog.
type SlogAdapter struct {
	l      *slog.Logger
	closer io.Closer
}

// NewFileLogger creates a logger appending to filePath. The parent
// directory is created when missing.
func NewFileLogger(filePath string, debugMode, traceMode bool) (*SlogAdapter, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), logDirPermissions); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	//nolint:gosec // path comes from XDG state dir or an explicit flag
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open log file")
	}

	adapter := NewFileLoggerWithWriter(file, debugMode, traceMode)
	adapter.closer = file

	return adapter, nil
}

// NewFileLoggerWithWriter creates a logger writing to w.
func NewFileLoggerWithWriter(w io.Writer, debugMode, traceMode bool) *SlogAdapter {
	level := LevelFromFlags(debugMode, traceMode)

	return &SlogAdapter{
		l: slog.New(newLineHandler(w, level.ToSlogLevel())),
	}
}

// Debug logs debug-level messages.
func (a *SlogAdapter) Debug(msg string, keysAndValues ...any) {
	a.l.Debug(msg, keysAndValues...)
}

// Info logs info-level messages.
func (a *SlogAdapter) Info(msg string, keysAndValues ...any) {
	a.l.Info(msg, keysAndValues...)
}

// Error logs error-level messages.
func (a *SlogAdapter) Error(msg string, keysAndValues ...any) {
	a.l.Error(msg, keysAndValues...)
}

// With returns a new logger with additional base key-value pairs.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (a *SlogAdapter) With(keysAndValues ...any) Logger {
	return &SlogAdapter{l: a.l.With(keysAndValues...)}
}

// Close closes the underlying log file, if any.
func (a *SlogAdapter) Close() error {
	if a.closer == nil {
		return nil
	}

	return a.closer.Close()
}

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (*NoOpLogger) Debug(string, ...any) {}

// Info does nothing.
func (*NoOpLogger) Info(string, ...any) {}

// Error does nothing.
func (*NoOpLogger) Error(string, ...any) {}

// With returns the same NoOpLogger.
//
//nolint:ireturn // With is intended to return an interface for chaining
func (n *NoOpLogger) With(...any) Logger {
	return n
}
