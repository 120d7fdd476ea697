package observe

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps debug, info, warn or error to a [slog.Level]. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("observe: unknown log level %q", level)
}

// NewLogger builds the process logger. level is one of debug, info, warn,
// error; format is "text" or "json". Empty values default to info/text.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLeveledLogger(w, lvl, format)
}

// NewLeveledLogger is [NewLogger] with the level supplied as a [slog.Leveler].
// Pass a *slog.LevelVar to change the level while the process runs.
func NewLeveledLogger(w io.Writer, lvl slog.Leveler, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("observe: unknown log format %q", format)
	}
}
