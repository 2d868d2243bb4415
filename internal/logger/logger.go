package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It writes JSON to stdout until Setup
// reconfigures it.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Setup replaces Log using the configured level. Pretty switches to the
// human readable console writer for local development.
func Setup(level string, pretty bool) {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	Log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// With returns a child logger tagged with the component name.
func With(component string) zerolog.Logger {
	return Log.With().Str("component", component).Logger()
}
