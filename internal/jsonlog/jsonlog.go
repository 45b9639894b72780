// Package jsonlog implements structured JSON log entries with different severity levels.
// Only entries at or above a minimum severity level are logged.
package jsonlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Level represents the type for the severity of a log entry.
type Level int8

// The severity type is one of these levels.
const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelFatal
	LevelOff
)

// String returns a human-friendly string for the severity level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return ""
	}
}

// ParseLevel converts a configured level name such as "info" or "ERROR" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "OFF":
		return LevelOff, nil
	default:
		return LevelInfo, fmt.Errorf("jsonlog: unknown level %q", s)
	}
}

// Logger holds the output destination that the log entries will be written to,
// the minimum severity level that log entries will be written for,
// and a mutex for coordinating the writes.
type Logger struct {
	out      io.Writer
	minLevel Level
	mu       sync.Mutex
	exit     func(code int)
}

// New returns a new logger instance which writes logs at or above a severity level
// to a specific output destination.
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{
		out:      out,
		minLevel: minLevel,
		exit:     os.Exit,
	}
}

func (l *Logger) print(level Level, message string, properties map[string]string) (int, error) {
	if level < l.minLevel {
		return 0, nil
	}
	aux := struct {
		Level      string            `json:"level"`
		Time       string            `json:"time"`
		Message    string            `json:"message"`
		Properties map[string]string `json:"properties,omitempty"`
		Trace      string            `json:"trace,omitempty"`
	}{
		Level:      level.String(),
		Time:       time.Now().UTC().Format(time.RFC3339),
		Message:    message,
		Properties: properties,
	}
	if level >= LevelError {
		aux.Trace = string(debug.Stack())
	}
	line, err := json.Marshal(aux)
	if err != nil {
		line = []byte(LevelError.String() + ": unable to marshal log message: " + err.Error())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(append(line, '\n'))
}

// Write is a method implemented so that the Logger type satisfies the io.Writer interface.
// This writes a log entry at the ERROR level with no additional properties, which lets
// the logger back http.Server.ErrorLog.
func (l *Logger) Write(message []byte) (n int, err error) {
	return l.print(LevelError, strings.TrimSpace(string(message)), nil)
}

// PrintInfo writes log entries at the INFO level.
func (l *Logger) PrintInfo(message string, properties map[string]string) {
	l.print(LevelInfo, message, properties)
}

// PrintWarn writes log entries at the WARN level.
func (l *Logger) PrintWarn(message string, properties map[string]string) {
	l.print(LevelWarn, message, properties)
}

// PrintError writes log entries at the ERROR level.
func (l *Logger) PrintError(err error, properties map[string]string) {
	l.print(LevelError, err.Error(), properties)
}

// PrintFatal writes log entries at the FATAL level and terminates the program.
func (l *Logger) PrintFatal(err error, properties map[string]string) {
	l.print(LevelFatal, err.Error(), properties)
	l.exit(1)
}
