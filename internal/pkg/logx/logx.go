/*
Package logx wraps zerolog and owns the process-wide logger configuration.

It initializes the global logger once at startup (console output in
development, JSON in production) and exposes small level helpers so callers
outside hot paths do not need to build zerolog event chains by hand.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog instance.
// Development mode enables the human-readable console writer at Debug level;
// otherwise output is JSON at Info level. Caller information is attached to
// every event.
func Init(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// checkFields guards against odd-length key/value lists, which would make
// zerolog panic. Offending lists are dropped with a warning.
func checkFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Int("fields_count", len(fields)).
			Str("log_level", level).
			Msg("logx call received an odd number of fields; fields ignored")
		return nil
	}
	return fields
}

// Info logs at Info level with optional key/value fields.
func Info(msg string, fields ...any) {
	fields = checkFields("Info", fields)

	Logger().Info().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn logs at Warn level with optional key/value fields.
func Warn(msg string, fields ...any) {
	fields = checkFields("Warn", fields)

	Logger().Warn().
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error logs an error at Error level with optional key/value fields.
func Error(err error, msg string, fields ...any) {
	fields = checkFields("Error", fields)

	Logger().Error().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal logs at Fatal level and terminates the process.
func Fatal(err error, msg string, fields ...any) {
	fields = checkFields("Fatal", fields)

	Logger().Fatal().
		Err(err).
		Fields(fields).
		CallerSkipFrame(1).
		Msg(msg)
}
