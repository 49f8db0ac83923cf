package server

import (
	"context"

	"property-valuation/utils"
)

type contextKey string

const (
	loggerKey  contextKey = "logger"
	traceIDKey contextKey = "trace_id"
)

func contextWithLogger(ctx context.Context, logger *utils.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// loggerFromContext returns the request-scoped logger, or fallback when the
// request did not pass through LoggerMiddleware.
func loggerFromContext(ctx context.Context, fallback *utils.Logger) *utils.Logger {
	if l, ok := ctx.Value(loggerKey).(*utils.Logger); ok {
		return l
	}
	return fallback
}

func contextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}
