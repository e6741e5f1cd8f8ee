// Package logging wraps slog with the field names used across the bridge.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with bridge-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler. A nil handler logs text to
// stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

func NewText(level slog.Level) *Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func NewJSON(level slog.Level) *Logger {
	return New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Noop discards everything.
func Noop() *Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %q", s)
}

// WithDimension tags the logger with the vector arity.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithParticles tags the logger with the ensemble size.
func (l *Logger) WithParticles(n int) *Logger {
	return &Logger{Logger: l.Logger.With("particles", n)}
}

// LogBuild logs the outcome of obtaining a kernel artifact.
func (l *Logger) LogBuild(ctx context.Context, source, artifact string, reused bool, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "kernel build failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "kernel artifact ready",
		"source", source,
		"artifact", artifact,
		"reused", reused,
		"elapsed", elapsed,
	)
}

// LogLoad logs loading a shared module into the process.
func (l *Logger) LogLoad(ctx context.Context, path string, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "module load failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "module loaded",
		"path", path,
		"cached", cached,
	)
}

// LogBind logs resolving a kernel entry point.
func (l *Logger) LogBind(ctx context.Context, symbol string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bind failed",
			"symbol", symbol,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "kernel bound",
		"symbol", symbol,
	)
}

// LogFrame logs one applied frame.
func (l *Logger) LogFrame(ctx context.Context, frame uint64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "frame failed",
			"frame", frame,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "frame applied",
		"frame", frame,
		"elapsed", elapsed,
	)
}

// LogRun logs the end of a driving loop.
func (l *Logger) LogRun(ctx context.Context, frames int, wall time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "run stopped",
			"frames", frames,
			"wall", wall,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"frames", frames,
		"wall", wall,
	)
}
