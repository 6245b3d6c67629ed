package recgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/recgo/model"
)

// Logger wraps slog.Logger with recgo-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// LogOpen logs a table open or create.
func (l *Logger) LogOpen(ctx context.Context, table string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "table opened",
			"table", table,
		)
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, table string, id model.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"table", table,
			"id", int64(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "save completed",
			"table", table,
			"id", int64(id),
		)
	}
}

// LogFetch logs a fetch operation.
func (l *Logger) LogFetch(ctx context.Context, table string, id model.ID, err error) {
	if err != nil {
		l.DebugContext(ctx, "fetch failed",
			"table", table,
			"id", int64(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fetch completed",
			"table", table,
			"id", int64(id),
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, table string, id model.ID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"table", table,
			"id", int64(id),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"table", table,
			"id", int64(id),
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, table, field string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"table", table,
			"field", field,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"table", table,
			"field", field,
			"results", results,
		)
	}
}
