package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the process-wide zerolog logger. All
// diagnostics go to stderr: stdout is the data channel and must carry
// nothing but the relayed stream.
func InitLogger(debug bool) {
	log.Logger = zerolog.New(PrettyWriter(os.Stderr)).With().Timestamp().Logger()
	SetDebug(debug)
}

// SetDebug switches the global level between info and debug.
func SetDebug(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// PrettyWriter returns the console writer used for stderr diagnostics.
func PrettyWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}
