package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "meetup-server"

// NewLogger builds the process logger on stdout and installs it as the
// zerolog global.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	logger := NewLoggerTo(os.Stdout, cfg)
	log.Logger = logger
	return logger
}

// NewLoggerTo builds a logger writing to w. Unknown levels fall back to info;
// format "console" switches to human-readable output.
func NewLoggerTo(w io.Writer, cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}
