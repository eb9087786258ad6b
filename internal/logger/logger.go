package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger and installs it as the global logger used
// by the bundler and plugins. Debug mode writes human readable output.
func Setup(debug bool) zerolog.Logger {
	logger := New(os.Stderr, debug)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// New builds a logger writing to w.
func New(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()

	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Caller().Stack().Logger()
	}

	return logger
}
