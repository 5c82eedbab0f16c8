package app

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances. Every extra
// writer receives the same records through a fanout handler.
func newLogger(levelStr, formatStr string, outW io.Writer, extra ...io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	newHandler := func(w io.Writer) slog.Handler {
		if formatStr == "json" {
			return slog.NewJSONHandler(w, handlerOpts)
		}
		return slog.NewTextHandler(w, handlerOpts)
	}

	if len(extra) == 0 {
		return slog.New(newHandler(outW))
	}

	handlers := []slog.Handler{newHandler(outW)}
	for _, w := range extra {
		handlers = append(handlers, newHandler(w))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}
