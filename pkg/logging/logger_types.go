package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

// Level orders log entries by importance.
type Level int

const (
	// DebugLevel covers per-frame and per-command detail.
	DebugLevel Level = iota
	// InfoLevel covers loads, saves and lifecycle events.
	InfoLevel
	// WarnLevel covers repaired documents and refused commands.
	WarnLevel
	// ErrorLevel covers failed saves and unreadable snapshots.
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configured level name to a Level, case-insensitively.
// Unknown names give InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field is one key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

// Logger is what the session, persistence and host components log through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
}

// JSONLogger implements Logger with JSON output, one object per line.
// Its level is fixed when it is created.
type JSONLogger struct {
	writer io.Writer
	level  Level
	fields []Field
	mu     sync.Mutex
}

// LogEntry is one line of JSONLogger output.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything. Components fall back to it when no logger is given.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (n NopLogger) With(fields ...Field) Logger     { return n }

// TimedOperation logs how long a load, save or layout step took.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
