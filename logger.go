package nuclear

import (
	"log/slog"
	"os"
)

// Logger is the four-level, slog-compatible logging interface the
// PowerPlant writes through, and hands to the Scheduler via
// schedulerLogAdapter. Any of log/slog, zap, or logrus can back it with a thin
// adapter; the shape deliberately matches what those libraries already
// expose.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// slogLogger adapts *slog.Logger to Logger. This is the default used
// when New is not given one explicitly.
type slogLogger struct{ l *slog.Logger }

// NewSlogLogger wraps l, or a sensible text-handler default writing to
// stderr if l is nil.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }

// schedulerLogAdapter narrows Logger to internal/scheduler's Logger
// interface (it only needs Error), avoiding an import of this package
// from internal/scheduler.
type schedulerLogAdapter struct{ log Logger }

func (a schedulerLogAdapter) Error(msg string, args ...any) { a.log.Error(msg, args...) }
