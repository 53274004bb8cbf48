package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the common interface for logging in babble.
// It wraps slog.Logger so packages can take a logger from the context.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger is a Logger implementation that wraps slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) Logger {
	return &SlogLogger{
		logger: slog.New(handler),
	}
}

// Default creates a Logger with default text handler writing to stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// JSON creates a Logger with JSON handler for production use.
func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// Text creates a Logger with the standard slog text handler.
func Text(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

// ForFormat builds a Logger for one of the CLI formats: "pretty", "json"
// or "text". Unknown formats fall back to pretty.
func ForFormat(format string, w io.Writer, level slog.Level) Logger {
	switch format {
	case "json":
		return JSON(w, level)
	case "text":
		return Text(w, level)
	default:
		return Pretty(w, level)
	}
}

// Pretty creates a Logger with colored pretty output for CLI use.
func Pretty(w io.Writer, level slog.Level) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// FromContext returns the Logger installed by WithContext, or Default when
// the context carries none (library calls made outside the CLI or server).
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return Default()
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{
		logger: l.logger.With(args...),
	}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{
		logger: l.logger.WithGroup(name),
	}
}

// ParseLevel converts a --log-level or config value to slog.Level. Case and
// surrounding space are ignored; anything unrecognized is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
