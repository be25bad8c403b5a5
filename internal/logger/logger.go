// Package logger sets up the daemon's structured log file
package logger

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating log file.
type Options struct {
	Path       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
}

// New returns a JSON logger writing to a rotating file. The returned closer
// releases the file.
func New(opts Options) (*slog.Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}

	return NewWithWriter(w, opts.Level), w
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(h)
}
