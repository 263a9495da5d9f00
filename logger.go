package skinmatch

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with skinmatch-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithID adds a vector id field to the logger.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, id string, dimension int, err error) {
	if err != nil {
		l.WarnContext(ctx, "add rejected",
			"id", id,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.WarnContext(ctx, "search degraded",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogRerank logs a demographic re-ranking operation.
func (l *Logger) LogRerank(ctx context.Context, k, candidates int, err error) {
	if err != nil {
		l.WarnContext(ctx, "rerank degraded",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "rerank completed",
			"k", k,
			"candidates", candidates,
		)
	}
}

// LogPersist logs a snapshot persist operation.
func (l *Logger) LogPersist(ctx context.Context, name string, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot persisted",
			"name", name,
			"vectors", vectors,
		)
	}
}

// LogRestore logs a snapshot restore operation.
func (l *Logger) LogRestore(ctx context.Context, name string, vectors int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed, serving empty index",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot restored",
			"name", name,
			"vectors", vectors,
		)
	}
}
