package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

var loggerCtxKey = contextKey{}

// FromContext returns the logger stored in ctx, or the global logger.
// It is safe to call with a nil context.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if l, ok := ctx.Value(loggerCtxKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.L()
}

// WithLogger attaches logger to ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerCtxKey, logger)
}
