// Package logging builds the slog logger used for diagnostics. Command
// results are written to the command's output, not through the logger.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. It logs warnings and errors by
// default, and everything down to debug when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
