// Package logger builds the process-wide zerolog logger.
//
// Request handlers do not hold the process logger directly: the request id
// middleware stores a child logger carrying the request id in the request
// context, and handlers fetch it with zerolog.Ctx.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger writing to w at level. A nil writer means
// stdout; zerolog.NoLevel means info.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(w).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(level)
}

// Console returns a human-readable logger for CLI commands.
func Console(level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, level)
}
