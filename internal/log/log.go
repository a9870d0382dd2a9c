// Package log configures structured logging for checkview using log/slog.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Handler formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options select the level and handler of the default logger.
type Options struct {
	Verbose bool
	Quiet   bool
	// Format is FormatText or FormatJSON; anything else means text.
	Format string
	// Writer defaults to stderr.
	Writer io.Writer
}

// Level maps the verbosity flags to a slog level.
//
//   - quiet mode:   only WARN and ERROR messages
//   - normal mode:  INFO and above
//   - verbose mode: DEBUG and above
func (o Options) Level() slog.Level {
	switch {
	case o.Quiet:
		return slog.LevelWarn
	case o.Verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from opts without installing it.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level()}
	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Setup installs the logger built from opts as the slog default.
func Setup(opts Options) {
	slog.SetDefault(New(opts))
}
