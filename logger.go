package uvfilter

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/uvfilter/graphics"
	"github.com/gogpu/uvfilter/graphics/halgpu"
	"github.com/gogpu/uvfilter/host"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// slogger returns the current package logger.
func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger configures the logger for uvfilter and the graphics, halgpu
// and host packages. By default nothing is logged.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by uvfilter:
//   - [slog.LevelDebug]: resource lifecycle (uploads, compiles, scope flushes)
//   - [slog.LevelInfo]: configuration applied, device opened
//   - [slog.LevelWarn]: recovered failures (decode, compile, draw)
//
// Example:
//
//	uvfilter.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	graphics.SetLogger(l)
	halgpu.SetLogger(l)
	host.SetLogger(l)
}

// Logger returns the current logger used by uvfilter.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
