package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

const defaultCallerSkipFrameCount = 3

// ZeroLogger implements Logger on top of rs/zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
	filter *SensitiveDataFilter
}

// New creates a ZeroLogger at the given level ("debug", "info", "warn",
// "error"). Unknown levels fall back to info. When pretty is true output is
// human-readable console format instead of JSON.
func New(level string, pretty bool) *ZeroLogger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		parsedLevel = zerolog.InfoLevel
	}

	var zlog zerolog.Logger
	if pretty {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		zlog = zerolog.New(output)
	} else {
		zlog = zerolog.New(os.Stderr)
	}

	zlog = zlog.Level(parsedLevel).
		With().
		Timestamp().
		CallerWithSkipFrameCount(defaultCallerSkipFrameCount).
		Logger()

	return &ZeroLogger{
		logger: zlog,
		filter: NewSensitiveDataFilter(DefaultFilterConfig()),
	}
}

// NewNop returns a logger that discards everything. Useful as a default when
// callers do not configure logging.
func NewNop() *ZeroLogger {
	return &ZeroLogger{
		logger: zerolog.Nop(),
		filter: NewSensitiveDataFilter(DefaultFilterConfig()),
	}
}

// Info starts an info-level event.
func (l *ZeroLogger) Info() LogEvent {
	return &LogEventAdapter{Event: l.logger.Info(), filter: l.filter}
}

// Warn starts a warn-level event.
func (l *ZeroLogger) Warn() LogEvent {
	return &LogEventAdapter{Event: l.logger.Warn(), filter: l.filter}
}

// Error starts an error-level event.
func (l *ZeroLogger) Error() LogEvent {
	return &LogEventAdapter{Event: l.logger.Error(), filter: l.filter}
}

// Debug starts a debug-level event.
func (l *ZeroLogger) Debug() LogEvent {
	return &LogEventAdapter{Event: l.logger.Debug(), filter: l.filter}
}

// WithFields returns a derived logger with the fields attached to every event.
// Sensitive values are masked before they reach the underlying logger.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	filtered := l.filter.FilterFields(fields)
	return &ZeroLogger{
		logger: l.logger.With().Fields(filtered).Logger(),
		filter: l.filter,
	}
}

// LogEventAdapter adapts a zerolog.Event to the LogEvent interface, masking
// sensitive string and map values as fields are added.
type LogEventAdapter struct {
	Event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (a *LogEventAdapter) Msg(msg string) {
	a.Event.Msg(msg)
}

func (a *LogEventAdapter) Msgf(format string, args ...any) {
	a.Event.Msgf(format, args...)
}

func (a *LogEventAdapter) Err(err error) LogEvent {
	return &LogEventAdapter{Event: a.Event.Err(err), filter: a.filter}
}

func (a *LogEventAdapter) Str(key, value string) LogEvent {
	if a.filter != nil {
		value = a.filter.FilterString(key, value)
	}
	return &LogEventAdapter{Event: a.Event.Str(key, value), filter: a.filter}
}

func (a *LogEventAdapter) Int(key string, value int) LogEvent {
	return &LogEventAdapter{Event: a.Event.Int(key, value), filter: a.filter}
}

func (a *LogEventAdapter) Int64(key string, value int64) LogEvent {
	return &LogEventAdapter{Event: a.Event.Int64(key, value), filter: a.filter}
}

func (a *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	return &LogEventAdapter{Event: a.Event.Dur(key, d), filter: a.filter}
}

func (a *LogEventAdapter) Interface(key string, i any) LogEvent {
	if a.filter != nil {
		i = a.filter.FilterValue(key, i)
	}
	return &LogEventAdapter{Event: a.Event.Interface(key, i), filter: a.filter}
}

func (a *LogEventAdapter) Bytes(key string, val []byte) LogEvent {
	return &LogEventAdapter{Event: a.Event.Bytes(key, val), filter: a.filter}
}
