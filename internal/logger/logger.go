// Package logger provides the process-wide structured logger for trendr.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	mu            sync.RWMutex
)

func init() {
	defaultLogger = newConsole(os.Stderr).Level(zerolog.InfoLevel)
}

// Options configures the logger.
type Options struct {
	Level   string    // debug, info, warn, error (default: info)
	Verbose bool      // Force debug level
	Quiet   bool      // Only show errors
	JSON    bool      // Emit JSON lines instead of console output
	Output  io.Writer // Output destination (default: stderr)
}

// Init configures the logger. It is meant to be called once at startup.
func Init(opts Options) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	if opts.Quiet {
		level = zerolog.ErrorLevel
	}

	var l zerolog.Logger
	if opts.JSON {
		l = zerolog.New(output).With().Timestamp().Logger()
	} else {
		l = newConsole(output)
	}

	mu.Lock()
	defaultLogger = l.Level(level)
	mu.Unlock()
}

// ParseLevel maps a config level name to a zerolog level, falling back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newConsole(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Get returns a copy of the configured logger.
func Get() zerolog.Logger {
	return current()
}

// Debug logs a debug message with key/value pairs.
func Debug(msg string, kv ...any) {
	l := current()
	l.Debug().Fields(kv).Msg(msg)
}

// Info logs an info message with key/value pairs.
func Info(msg string, kv ...any) {
	l := current()
	l.Info().Fields(kv).Msg(msg)
}

// Warn logs a warning message with key/value pairs.
func Warn(msg string, kv ...any) {
	l := current()
	l.Warn().Fields(kv).Msg(msg)
}

// Error logs an error message with key/value pairs.
func Error(msg string, kv ...any) {
	l := current()
	l.Error().Fields(kv).Msg(msg)
}
