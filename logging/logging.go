// Package logging provides the structured logging interface shared by every
// component of the retrieval engine. It supports multiple severity levels
// and key/value pairs, and can optionally mirror errors to Sentry for
// operators that configure a DSN.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
)

// Level represents the severity of a log message. Higher values are more
// verbose.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "OFF"
	}
}

// Logger is the structured logging interface used across the engine.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	SetLevel(level Level)
}

// StdLogger is the default Logger implementation, writing to os.Stderr via
// the standard library's log package.
type StdLogger struct {
	logger      *log.Logger
	level       Level
	sentryOn    bool
	serviceName string
}

// NewLogger creates a new StdLogger at the given level. If sentryDSN is
// non-empty, Error-level messages are also reported to Sentry.
func NewLogger(level Level, sentryDSN string) *StdLogger {
	l := &StdLogger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  level,
	}
	if sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err == nil {
			l.sentryOn = true
		}
	}
	return l
}

func (l *StdLogger) SetLevel(level Level) { l.level = level }

func (l *StdLogger) log(level Level, msg string, keysAndValues ...interface{}) {
	if level > l.level {
		return
	}
	l.logger.Printf("%s: %s %v", level, msg, keysAndValues)
	if level == LevelError && l.sentryOn {
		sentry.CaptureMessage(fmt.Sprintf("%s %v", msg, keysAndValues))
	}
}

func (l *StdLogger) Debug(msg string, kv ...interface{}) { l.log(LevelDebug, msg, kv...) }
func (l *StdLogger) Info(msg string, kv ...interface{})  { l.log(LevelInfo, msg, kv...) }
func (l *StdLogger) Warn(msg string, kv ...interface{})  { l.log(LevelWarn, msg, kv...) }
func (l *StdLogger) Error(msg string, kv ...interface{}) { l.log(LevelError, msg, kv...) }

// Noop is a Logger that discards everything; useful in tests.
type Noop struct{}

func (Noop) Debug(string, ...interface{}) {}
func (Noop) Info(string, ...interface{})  {}
func (Noop) Warn(string, ...interface{})  {}
func (Noop) Error(string, ...interface{}) {}
func (Noop) SetLevel(Level)               {}
