// Package types holds the logging contracts shared by the logger and its adapters.
package types

import (
	"context"
	"strings"
	"time"
)

type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var levelNames = [...]string{"debug", "info", "warn", "error", "fatal"}

func (l LogLevel) String() string {
	if l < DebugLevel || l > FatalLevel {
		return "info"
	}
	return levelNames[l]
}

// ParseLevel accepts the names String produces, case-insensitively, plus "warning".
// Anything else is info.
func ParseLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	for i, name := range levelNames {
		if s == name {
			return LogLevel(i)
		}
	}
	return InfoLevel
}

// LogEntry is one record handed to every adapter. RequestID is lifted out of
// the fields so adapters can place it consistently; it is empty outside a request.
type LogEntry struct {
	Level     LogLevel
	Message   string
	Timestamp time.Time
	RequestID string
	Fields    map[string]interface{}
}

// LogAdapter writes entries to one destination
type LogAdapter interface {
	Write(entry *LogEntry) error
	Close() error
	// Health reports whether the adapter can still write
	Health() error
	Name() string
}

// Logger is what pipeline components log through. Derived loggers share the
// adapters and level of their parent; WithContext picks up the request ID.
type Logger interface {
	Debug(message string, fields ...map[string]interface{})
	Info(message string, fields ...map[string]interface{})
	Warn(message string, fields ...map[string]interface{})
	Error(message string, fields ...map[string]interface{})
	Fatal(message string, fields ...map[string]interface{})

	WithContext(ctx context.Context) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}
