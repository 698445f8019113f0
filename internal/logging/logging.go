// Package logging holds the logger shared by the restore packages.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards everything and reports every level as disabled, so
// callers skip formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger replaces the shared logger. Passing nil silences logging again,
// which is also the default.
//
// Levels in use:
//   - [slog.LevelDebug]: per-channel breakpoints and curve details
//   - [slog.LevelInfo]: one line per processed file
//   - [slog.LevelWarn]: files skipped or metadata dropped
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the shared logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
