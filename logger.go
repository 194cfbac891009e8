package locindex

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with locindex-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSource adds a source field (file path or blob name) to the logger.
func (l *Logger) WithSource(source string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", source),
	}
}

// LogSkippedEdge logs an edge left out of the index.
func (l *Logger) LogSkippedEdge(ctx context.Context, edge int, err error) {
	l.WarnContext(ctx, "edge skipped",
		"edge", edge,
		"error", err,
	)
}

// LogBuild logs a build operation.
func (l *Logger) LogBuild(ctx context.Context, edges, skipped, depth int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"edges", edges,
			"error", err,
		)
		return
	}
	if skipped > 0 {
		l.WarnContext(ctx, "build completed with skipped edges",
			"edges", edges,
			"skipped", skipped,
			"depth", depth,
			"duration", duration,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"edges", edges,
		"depth", depth,
		"duration", duration,
	)
}

// LogLoad logs loading an index from memory, a file or a blob store.
func (l *Logger) LogLoad(ctx context.Context, bytes int64, compression Compression, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index loaded",
		"bytes", bytes,
		"compression", compression.String(),
	)
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, name string, bytes int64, compression Compression, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index saved",
		"name", name,
		"bytes", bytes,
		"compression", compression.String(),
	)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound, tiles int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"k", k,
		"results", resultsFound,
		"tiles", tiles,
	)
}
