package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger tagged with the service name.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env, service, level string) zerolog.Logger {
	if env == "dev" || env == "development" {
		return NewConsoleLogger(os.Stdout, service, level)
	}
	return build(os.Stdout, service, level)
}

// NewConsoleLogger writes human-readable lines to w.
func NewConsoleLogger(w io.Writer, service, level string) zerolog.Logger {
	return build(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}, service, level)
}

// build falls back to info for an empty or unknown level.
func build(w io.Writer, service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", service).Logger()
}
