// Package logging sets up the process-wide slog handler and hands out
// component-scoped loggers. Text output goes to stderr so case data on
// stdout stays machine-readable; the json format is for runs captured
// by another tool, such as an MCP client.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Formats accepted by Init and the workspace config.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Init installs the global slog handler. A nil writer means os.Stderr;
// any format other than "json" falls back to text.
func Init(level slog.Level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// New returns a logger tagged with the originating component, so engine,
// agent, and server lines are separable in one stream.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps a config string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
