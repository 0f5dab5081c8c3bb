package schwarzgo

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger for structured logging of setup operations.
// Hot paths, Apply in particular, never log.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from an existing slog.Logger.
// If logger is nil, a no-op logger is returned.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		return NoopLogger()
	}

	return &Logger{Logger: logger}
}

// NewTextLogger creates a logger writing human-readable output to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NewJSONLogger creates a logger writing JSON output to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NoopLogger returns a logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000), // above any real level
		})),
	}
}

// WithRank returns a logger with the process rank attached to all records.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Int("rank", rank))}
}

// WithDOF returns a logger with the subdomain dimension attached.
func (l *Logger) WithDOF(dof int) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Int("dof", dof))}
}

// WithComponent returns a logger with a component name attached.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("component", name))}
}

// LogFactorize logs the outcome of a subdomain factorization.
func (l *Logger) LogFactorize(ctx context.Context, mode Mode, dof int, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "factorization failed",
			slog.String("mode", mode.String()),
			slog.Int("dof", dof),
			slog.Duration("duration", dur),
			slog.Any("error", err))

		return
	}

	l.InfoContext(ctx, "factorization completed",
		slog.String("mode", mode.String()),
		slog.Int("dof", dof),
		slog.Duration("duration", dur))
}

// LogEigenSolve logs the outcome of a spectral basis computation.
func (l *Logger) LogEigenSolve(ctx context.Context, requested, achieved int, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "eigensolve failed",
			slog.Int("requested", requested),
			slog.Duration("duration", dur),
			slog.Any("error", err))

		return
	}

	l.InfoContext(ctx, "eigensolve completed",
		slog.Int("requested", requested),
		slog.Int("achieved", achieved),
		slog.Duration("duration", dur))
}

// LogCoarseBuild logs the outcome of a coarse operator assembly.
func (l *Logger) LogCoarseBuild(ctx context.Context, localNu, size int, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "coarse build failed",
			slog.Int("local_nu", localNu),
			slog.Duration("duration", dur),
			slog.Any("error", err))

		return
	}

	l.InfoContext(ctx, "coarse build completed",
		slog.Int("local_nu", localNu),
		slog.Int("size", size),
		slog.Duration("duration", dur))
}

// LogSnapshot logs the outcome of persisting a setup snapshot.
func (l *Logger) LogSnapshot(ctx context.Context, key string, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			slog.String("key", key),
			slog.Duration("duration", dur),
			slog.Any("error", err))

		return
	}

	l.DebugContext(ctx, "snapshot completed",
		slog.String("key", key),
		slog.Duration("duration", dur))
}

// LogRestore logs the outcome of restoring a setup snapshot.
func (l *Logger) LogRestore(ctx context.Context, key string, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			slog.String("key", key),
			slog.Duration("duration", dur),
			slog.Any("error", err))

		return
	}

	l.DebugContext(ctx, "restore completed",
		slog.String("key", key),
		slog.Duration("duration", dur))
}
