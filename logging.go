package paddlewebhook

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger creates a zerolog logger honoring the logging configuration.
// Unknown levels fall back to info.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
