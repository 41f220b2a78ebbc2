// Package logging provides structured logging using slog, with an optional
// rotating log file so the full-screen TUI is never written over.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with mailbot-specific helpers.
type Logger struct {
	*slog.Logger
}

// FileConfig describes a rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// New creates a Logger writing to w at the given level.
func New(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewFile creates a JSON Logger backed by a rotating file. The returned
// closer flushes and closes the file.
func NewFile(cfg FileConfig, level slog.Level) (*Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return New(w, level, true), w
}

// Stderr creates a text Logger on stderr, for one-shot commands.
func Stderr(level slog.Level) *Logger {
	return New(os.Stderr, level, false)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, slog.LevelError+4, false)
}

// ParseLevel maps a settings string to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID returns a Logger tagged with a request ID.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With("request_id", requestID)}
}

// WithComponent returns a Logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// WithError returns a Logger carrying err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With("error", err.Error())}
}
