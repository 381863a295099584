package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging points the global logger at w with a console writer and
// sets the global level.
func setupLogging(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return usageErrorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	return nil
}

// logger returns the configured global logger.
func logger() zerolog.Logger {
	return log.Logger
}
