package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setupLogging configures the global logger based on CLI flags.
// Quiet keeps errors only; verbose adds per-file detail.
func setupLogging(w io.Writer, opts *cliOptions) zerolog.Logger {
	logLevel := zerolog.InfoLevel
	switch {
	case opts.quiet:
		logLevel = zerolog.ErrorLevel
	case opts.verbose:
		logLevel = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	var logger zerolog.Logger
	if opts.logJSON {
		logger = zerolog.New(w)
	} else {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		output.NoColor = !opts.color
		logger = zerolog.New(output)
	}
	logger = logger.Level(logLevel).With().Timestamp().Logger()

	// Set the global logger instance used by log.Info(), log.Error(), etc.
	log.Logger = logger

	return logger
}
