package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With returns ctx carrying the context logger extended with fields.
// The request id and caller id reach handler logs this way.
func With(ctx context.Context, fields ...any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, From(ctx).With(fields...))
}

// From returns the logger carried by ctx, or the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
