package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. The dev environment gets a
// human readable console writer, everything else writes JSON lines.
func Init(env string) {
	initWithWriter(env, os.Stdout)
}

func initWithWriter(env string, out io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if env == "dev" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		cw := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
