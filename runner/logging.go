package runner

import (
	"io"
	"log/slog"
	"time"

	"github.com/phsym/console-slog"
)

// NewLogger returns a console logger for the text format and a JSON logger
// otherwise.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

func (c *Config) LogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}

	if c.RunMode == RunModeLambda {
		return slog.LevelInfo
	}

	return slog.LevelWarn
}
