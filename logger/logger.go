package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	LOG_LEVEL_DEBUG = "DEBUG"
	LOG_LEVEL_INFO  = "INFO"
	LOG_LEVEL_WARN  = "WARN"
	LOG_LEVEL_ERROR = "ERROR"
	LOG_LEVEL_FATAL = "FATAL"
	LOG_LEVEL_PANIC = "PANIC"

	LogLevelEnv = "FRAMES_LOGLEVEL"
)

var output io.Writer = os.Stderr

func SetupLogging() {
	zerolog.LevelFieldName = "level_name"
	zerolog.TimestampFieldName = "timestamp"
}

// SetOutput redirects every logger created afterwards. Tests use it to silence output.
func SetOutput(w io.Writer) {
	output = w
}

func NewLogger(component string) zerolog.Logger {
	level, ok := os.LookupEnv(LogLevelEnv)
	if !ok {
		level = LOG_LEVEL_INFO
	}

	return zerolog.New(output).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case LOG_LEVEL_DEBUG:
		return zerolog.DebugLevel
	case LOG_LEVEL_WARN:
		return zerolog.WarnLevel
	case LOG_LEVEL_ERROR:
		return zerolog.ErrorLevel
	case LOG_LEVEL_FATAL:
		return zerolog.FatalLevel
	case LOG_LEVEL_PANIC:
		return zerolog.PanicLevel
	}
	return zerolog.InfoLevel
}
