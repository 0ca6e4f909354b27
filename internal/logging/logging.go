// Package logging provides application-wide logging configuration.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FormatJSON selects newline-delimited JSON output instead of the console writer.
const FormatJSON = "json"

var debugEnabled bool

// Init initializes the global logger.
func Init(debug bool, format string) {
	InitWriter(os.Stderr, debug, format)
}

// InitWriter initializes the global logger writing to out.
func InitWriter(out io.Writer, debug bool, format string) {
	debugEnabled = debug
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if format == FormatJSON {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// DebugEnabled reports whether debug logging is enabled.
func DebugEnabled() bool {
	return debugEnabled
}
