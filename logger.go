package poster

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards everything; Enabled is false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger sets the logger used by the engine. By default nothing is
// logged; pass nil to go back to that.
//
// Levels used:
//   - Debug: geometry & per tile detail
//   - Info: job lifecycle
//   - Warn: skipped optional outputs
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current engine logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

func log() *slog.Logger {
	return loggerPtr.Load()
}
