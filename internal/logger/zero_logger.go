package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// ZeroLogger is the zerolog-backed Logger used in production.
type ZeroLogger struct {
	log   zerolog.Logger
	level Level
}

var _ Logger = (*ZeroLogger)(nil)

// NewZeroLogger returns a configured ZeroLogger writing to w.
func NewZeroLogger(w io.Writer, level Level, defaultFields Fields) *ZeroLogger {
	props := make(map[string]interface{}, len(defaultFields))
	for k, v := range defaultFields {
		props[k] = v
	}
	l := &ZeroLogger{level: level}
	l.log = zerolog.New(w).With().Fields(props).Timestamp().Logger().Level(zeroLevel(level))
	return l
}

func zeroLevel(level Level) zerolog.Level {
	switch level {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	case LevelOff:
		return zerolog.Disabled
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZeroLogger) Info(message string, properties map[string]interface{}) {
	l.log.Info().Fields(properties).Msg(message)
}

func (l *ZeroLogger) Error(err error, properties map[string]interface{}) {
	l.log.Error().Fields(properties).Err(err).Msg(err.Error())
}

func (l *ZeroLogger) Fatal(err error, properties map[string]interface{}) {
	l.log.Fatal().Fields(properties).Err(err).Msg(err.Error())
}

func (l *ZeroLogger) Debug(message string, properties map[string]interface{}) {
	l.log.Debug().Fields(properties).Msg(message)
}

func (l *ZeroLogger) SetLevel(level Level) {
	l.level = level
	l.log = l.log.Level(zeroLevel(level))
}
