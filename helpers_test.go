package restclient

import (
	"maps"
	"time"

	"github.com/gaborage/go-restclient/logger"
)

// fakeLogEvent implements logger.LogEvent for testing
type fakeLogEvent struct {
	logger *fakeLogger
	level  string
	fields map[string]any
}

func (e *fakeLogEvent) Msg(msg string) {
	e.logger.events = append(e.logger.events, loggedEvent{
		level:   e.level,
		fields:  maps.Clone(e.fields),
		message: msg,
	})
}

func (e *fakeLogEvent) Msgf(format string, _ ...any) {
	e.Msg(format)
}

func (e *fakeLogEvent) Err(err error) logger.LogEvent {
	e.fields["error"] = err
	return e
}

func (e *fakeLogEvent) Str(key, value string) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int(key string, value int) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int64(key string, value int64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Dur(key string, d time.Duration) logger.LogEvent {
	e.fields[key] = d
	return e
}

func (e *fakeLogEvent) Interface(key string, i any) logger.LogEvent {
	e.fields[key] = i
	return e
}

func (e *fakeLogEvent) Bytes(key string, val []byte) logger.LogEvent {
	e.fields[key] = val
	return e
}

// fakeLogger implements logger.Logger for testing
type fakeLogger struct {
	events []loggedEvent
}

type loggedEvent struct {
	level   string
	fields  map[string]any
	message string
}

func (l *fakeLogger) Info() logger.LogEvent {
	return &fakeLogEvent{logger: l, level: "info", fields: make(map[string]any)}
}

func (l *fakeLogger) Warn() logger.LogEvent {
	return &fakeLogEvent{logger: l, level: "warn", fields: make(map[string]any)}
}

func (l *fakeLogger) Error() logger.LogEvent {
	return &fakeLogEvent{logger: l, level: "error", fields: make(map[string]any)}
}

func (l *fakeLogger) Debug() logger.LogEvent {
	return &fakeLogEvent{logger: l, level: "debug", fields: make(map[string]any)}
}

func (l *fakeLogger) WithFields(_ map[string]any) logger.Logger {
	return l
}

func (l *fakeLogger) eventsByLevel(level string) []loggedEvent {
	var events []loggedEvent
	for _, event := range l.events {
		if event.level == level {
			events = append(events, event)
		}
	}
	return events
}

func (l *fakeLogger) eventsByMessage(message string) []loggedEvent {
	var events []loggedEvent
	for _, event := range l.events {
		if event.message == message {
			events = append(events, event)
		}
	}
	return events
}
