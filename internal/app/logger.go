package app

import (
	"io"
	"log/slog"
)

// newLogger builds an isolated slog.Logger writing to w. Unknown levels fall
// back to info; any format other than "json" selects the text handler. Debug
// logging adds source locations.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if opts.Level == slog.LevelDebug {
		opts.AddSource = true
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
