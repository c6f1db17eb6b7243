// Package logging builds the zerolog logger used across chessbot.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/config"
)

// New returns a logger writing to w at the configured level. The console
// format is for terminals; json is for everything else.
func New(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Component tags l with the name of the subsystem using it.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
