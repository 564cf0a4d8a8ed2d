package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the process-wide zerolog logger.
// Development gets a console writer, everything else JSON on stdout.
func Init(environment, level string) {
	InitTo(os.Stdout, environment, level)
}

// InitTo is Init with an explicit destination
func InitTo(out io.Writer, environment, level string) {
	w := out
	if environment == "development" || environment == "dev" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(w).With().
		Timestamp().
		Str("service", "gameshelf-backend").
		Logger()

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Component returns a sub-logger tagged with the component name.
// It reads the global logger on every call so Init may run after package init.
func Component(name string) *zerolog.Logger {
	l := log.Logger.With().Str("component", name).Logger()
	return &l
}
