// Package logging configures zerolog for the skiff command line tool.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/NerdMeNot/skiff"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps a -v count to a zerolog level
func LevelFor(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// SetupLogger configures the global logger and hands it to the skiff library.
// Output goes to stderr in console format unless jsonOutput is set.
func SetupLogger(verbosity int, jsonOutput bool) {
	SetupLoggerTo(os.Stderr, verbosity, jsonOutput)
}

// SetupLoggerTo is SetupLogger with an explicit destination
func SetupLoggerTo(w io.Writer, verbosity int, jsonOutput bool) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	out := w
	if !jsonOutput {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}
	skiff.SetLogger(log.Logger)

	log.Debug().Int("verbosity", verbosity).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
