package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel overrides log_level from the configuration file.
const EnvLogLevel = "GLUECTL_LOG_LEVEL"

// newLogger builds the console logger.  The level comes from the environment
// when set, otherwise from the configuration.
func newLogger(out io.Writer, level string) zerolog.Logger {
	lvl, ok := parseLevel(os.Getenv(EnvLogLevel))
	if !ok {
		lvl, _ = parseLevel(level)
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "gluectl").Logger()
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// EventLogger appends lifecycle events (boot, reset, watchdog expiry) to a
// file as JSON lines.  It is safe for concurrent use: the watchdog reports
// from its own timer goroutine.
type EventLogger struct {
	mu   sync.Mutex
	file io.WriteCloser
	log  zerolog.Logger
}

// NewEventLogger opens filePath in append mode.  An empty path yields a
// logger that discards events.
func NewEventLogger(filePath string) (*EventLogger, error) {
	if strings.TrimSpace(filePath) == "" {
		return &EventLogger{log: zerolog.Nop()}, nil
	}
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", filePath, err)
	}
	return newEventLoggerTo(f), nil
}

func newEventLoggerTo(w io.WriteCloser) *EventLogger {
	return &EventLogger{
		file: w,
		log:  zerolog.New(w).With().Timestamp().Logger(),
	}
}

// Log writes a single event with optional string fields given as key/value
// pairs.  A trailing key without a value is written with an empty value.
func (el *EventLogger) Log(event string, kv ...string) {
	el.mu.Lock()
	defer el.mu.Unlock()
	e := el.log.Log().Str("event", event)
	for i := 0; i < len(kv); i += 2 {
		var v string
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		e = e.Str(kv[i], v)
	}
	e.Send()
}

// Close releases the underlying file.
func (el *EventLogger) Close() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.file == nil {
		return nil
	}
	err := el.file.Close()
	el.file = nil
	el.log = zerolog.Nop()
	return err
}
