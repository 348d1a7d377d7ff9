// Package logger configures the zerolog output shared by the CLI and the web client.
// Logs always go to stderr so that command output on stdout stays scriptable.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logger instance
var Logger = zerolog.Nop()

// Init configures Logger on stderr. A non-empty file also receives every
// entry, rotated at 50 MB.
func Init(level, format, file string) {
	var out io.Writer = os.Stderr
	if file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			Compress:   true,
		})
	}
	InitWithWriter(level, format, out)
}

// InitWithWriter configures Logger on out. format is json or console.
func InitWithWriter(level, format string, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if strings.EqualFold(format, "json") {
		Logger = zerolog.New(out).With().Timestamp().Caller().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(out),
		}).With().Timestamp().Logger()
	}

	log.Logger = Logger
}

// ParseLevel maps a level name to a zerolog level, info when unknown
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Component returns Logger tagged with the emitting component
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
