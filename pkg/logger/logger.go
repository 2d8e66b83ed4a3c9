// Package logger builds the *slog.Logger values used across codeer.
//
// Terminal output goes through a charmbracelet/log handler. File and service
// logs use slog's JSON handler.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	prefix string
	writer io.Writer
}

// New creates a *slog.Logger configured by the given options. By default it
// writes slog text records at Info level to os.Stderr.
func New(opts ...Option) *slog.Logger {
	c := &config{level: slog.LevelInfo, writer: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}

	var handler slog.Handler
	switch {
	case c.json:
		handler = slog.NewJSONHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	case c.pretty:
		handler = charmlog.NewWithOptions(c.writer, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          c.prefix,
		})
	default:
		handler = slog.NewTextHandler(c.writer, &slog.HandlerOptions{Level: c.level})
	}

	l := slog.New(handler)
	if c.prefix != "" && !c.pretty {
		l = l.With("component", c.prefix)
	}
	return l
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
