package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config value like "debug" into a LogLevel, INFO if unknown
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger is a leveled logger with structured fields on top of lgr
type Logger struct {
	lg     lgr.L
	level  LogLevel
	fields map[string]interface{}
}

// NewLogger creates a new logger with the specified level writing through lg
func NewLogger(level LogLevel, lg lgr.L) *Logger {
	return &Logger{
		lg:     lg,
		level:  level,
		fields: make(map[string]interface{}),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) logf(level LogLevel, format string, v ...interface{}) {
	if !l.shouldLog(level) {
		return
	}
	message := fmt.Sprintf(format, v...)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
		}
		message += " [" + strings.Join(parts, ", ") + "]"
	}

	// lgr reads the level from the bracketed prefix
	l.lg.Logf("[%s] %s", level.String(), message)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) { l.logf(INFO, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) { l.logf(WARN, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// WithFields returns a new logger with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newLogger := &Logger{
		lg:     l.lg,
		level:  l.level,
		fields: make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// WithField returns a new logger with a single field added
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Log is the process-wide logger
var Log = NewLogger(INFO, lgr.New(lgr.Out(os.Stdout), lgr.Err(os.Stderr)))

// SetupLog rebuilds Log with colors and masks the given secrets in every line.
// Empty secrets are ignored.
func SetupLog(level LogLevel, out io.Writer, secrets ...string) {
	opts := []lgr.Option{lgr.Out(out), lgr.Err(out), lgr.LevelBraces}
	if level == DEBUG {
		opts = append(opts, lgr.Debug, lgr.Msec)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	opts = append(opts, lgr.Map(colorizer))

	var masked []string
	for _, s := range secrets {
		if s != "" {
			masked = append(masked, s)
		}
	}
	if len(masked) > 0 {
		opts = append(opts, lgr.Secret(masked...))
	}

	Log = NewLogger(level, lgr.New(opts...))
}
