// Package logging provides leveled, structured logging on top of log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// slogLevel maps to the slog level.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses a string into a LogLevel.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "info", "INFO":
		return LogLevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Format selects the record encoding.
type Format int

const (
	// FormatAuto uses text on a terminal and JSON otherwise.
	FormatAuto Format = iota
	// FormatText is slog's key=value text.
	FormatText
	// FormatJSON is one JSON object per line.
	FormatJSON
)

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum log level to output.
	Level LogLevel
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Format selects text or JSON records.
	Format Format
}

// Logger is a leveled structured logger. Fields are slog key/value pairs.
type Logger struct {
	slog *slog.Logger
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	options := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}

	var handler slog.Handler
	if useText(cfg) {
		handler = slog.NewTextHandler(cfg.Output, options)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, options)
	}

	return &Logger{slog: slog.New(handler)}
}

func useText(cfg LoggerConfig) bool {
	switch cfg.Format {
	case FormatText:
		return true
	case FormatJSON:
		return false
	}
	f, ok := cfg.Output.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewLogger(LoggerConfig{Level: LogLevelError, Output: io.Discard, Format: FormatText})
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{slog: l.slog.With(key, value)}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}
