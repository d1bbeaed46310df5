// Package logger defines the structured logging contract used by the client
// and provides a zerolog-backed implementation.
package logger

import "time"

// Logger is the contract for structured logging. Implementations must be safe
// for concurrent use.
type Logger interface {
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	Debug() LogEvent
	WithFields(fields map[string]any) Logger
}

// LogEvent is a structured log event built up from typed fields and sent with
// Msg or Msgf. Field methods return the event for chaining.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
