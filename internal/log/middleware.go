package log

import (
	"context"
)

// CorrelationIDHeader carries the request correlation id in and out.
const CorrelationIDHeader = "X-Correlation-ID"

// ContextWithCorrelationID stores id, generating one when empty. It returns the id used.
func ContextWithCorrelationID(ctx context.Context, id string) (context.Context, string) {
	if id == "" {
		id = GenerateCorrelationID()
	}
	return context.WithValue(ctx, CorrelatedIDKey, id), id
}

// ContextWithLogger stores a request scoped logger for GetLoggerInstanceFromContext.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerKeyForContext, logger)
}
