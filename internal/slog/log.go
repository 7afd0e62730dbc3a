package slog

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const (
	SOURCE_FIELD_NAME = "src"

	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	TraceLevel = zerolog.TraceLevel

	JSON_FORMAT    = "json"
	CONSOLE_FORMAT = "console"
)

func init() {
	//configure zerolog fields

	zerolog.DurationFieldInteger = false
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.MessageFieldName = "msg"
	zerolog.LevelFieldName = "lvl"
	zerolog.TimestampFieldName = "tm"
}

// New creates a logger writing to w, format is either JSON_FORMAT or CONSOLE_FORMAT.
func New(w io.Writer, level zerolog.Level, format string) (zerolog.Logger, error) {
	switch format {
	case JSON_FORMAT, "":
	case CONSOLE_FORMAT:
		w = zerolog.ConsoleWriter{
			Out:           w,
			TimeFormat:    time.TimeOnly,
			PartsOrder:    []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, SOURCE_FIELD_NAME, zerolog.MessageFieldName},
			FieldsExclude: []string{SOURCE_FIELD_NAME},
		}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel parses a level name, the empty string is the info level.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, err
	}
	if level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func ChildLoggerForSource(logger zerolog.Logger, src string) zerolog.Logger {
	return logger.With().Str(SOURCE_FIELD_NAME, src).Logger()
}
