// Package shelllog configures the interpreter's structured logger.
//
// Grounded on the teacher's runtime/lexer.New, which builds a slog.TextHandler
// gated by an environment variable and strips the timestamp/level attributes
// for cleaner trace output. gosh reuses that pattern for GOSH_DEBUG and for
// the `set -x`/`set -v` execution traces described in spec.md §4.7.
package shelllog

import (
	"log/slog"
	"os"
)

// New builds a logger that writes to w at level, stripping the timestamp
// attribute the way interactive xtrace output does (no wall-clock noise).
func New(w *os.File, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// FromEnv builds a logger honoring GOSH_DEBUG (debug level when set to any
// non-empty value, info level otherwise), matching the teacher's
// DEVCMD_DEBUG_LEXER convention.
func FromEnv() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("GOSH_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return New(os.Stderr, level)
}

// Discard is a logger that drops everything; used where a *slog.Logger is
// required but tracing is disabled.
var Discard = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
