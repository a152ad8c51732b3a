package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const service = "castro-guide"

// NewLogger returns the process logger writing to stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
func NewLogger(env, level string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, env, level)
}

// NewLoggerTo is NewLogger with an explicit sink. Unknown or empty levels
// fall back to info.
func NewLoggerTo(w io.Writer, env, level string) zerolog.Logger {
	switch strings.ToLower(env) {
	case "dev", "development":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(parseLevel(level)).With().
		Timestamp().
		Str("service", service).
		Logger()
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
