package gfx

import "golang.org/x/exp/slog"

var logger = slog.Default().With(slog.String("component", "gfx"))

// SetLogger replaces the package logger. Contexts created afterwards use it
// unless their Config carries their own.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l.With(slog.String("component", "gfx"))
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger
}
