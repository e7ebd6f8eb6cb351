// Package logger provides structured logging for the connector CLI.
// Terminal sessions get colored tint output; non-terminal sessions get JSON
// so logs stay machine-parseable when redirected.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Initialize sets up the global slog logger and returns it.
func Initialize(level slog.Level) *slog.Logger {
	logger := slog.New(newHandler(os.Stderr, level, isTerminal(os.Stderr)))
	slog.SetDefault(logger)
	slog.Debug("logger initialized", "level", level)
	return logger
}

// New returns a logger writing to w, without touching the global default.
// Used by tests to capture log output.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newHandler(w, level, false))
}

func newHandler(w io.Writer, level slog.Level, colored bool) slog.Handler {
	if colored {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// isTerminal checks if the file is a character device.
func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
