package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = newBase(os.Stderr)
)

func newBase(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: true}).
		With().
		Timestamp().
		Logger()
}

// SetOutput redirects loggers created afterwards to w; nil restores stderr
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	base = newBase(w)
}

// SetLevel sets the global level from a name such as "debug" or "warn"
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Logger provides structured logging for the worker
type Logger struct {
	prefix string
	logger zerolog.Logger
}

// NewLogger creates a new logger with a prefix
func NewLogger(prefix string) *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &Logger{
		prefix: prefix,
		logger: base.With().Str("component", prefix).Logger(),
	}
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.logger.Info(), msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.logger.Warn(), msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.logger.Error(), msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.logger.Debug(), msg, keysAndValues...)
}

// Fatal logs and exits the process with status 1
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.logWithKV(l.logger.Fatal(), msg, keysAndValues...)
	os.Exit(1)
}

func (l *Logger) logWithKV(event *zerolog.Event, msg string, keysAndValues ...interface{}) {
	if event == nil {
		return
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if err, ok := keysAndValues[i+1].(error); ok {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, keysAndValues[i+1])
	}
	event.Msg(msg)
}
