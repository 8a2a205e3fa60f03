// Package logging configures the process-wide zerolog logger.
//
// Grounded on the teacher's internal/infrastructure/logger/logger.go
// level-string switch, adapted from log/slog's JSON handler to zerolog
// since this module's go.mod (unlike that teacher file's variant) depends
// on github.com/rs/zerolog.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup configures and returns a logger at the given level, writing JSON
// lines to stdout unless pretty is requested (for local development).
func Setup(level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out = os.Stdout
	var writer = zerolog.ConsoleWriter{Out: out}
	if pretty {
		return zerolog.New(writer).Level(parseLevel(level)).With().Timestamp().Logger()
	}
	return zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
