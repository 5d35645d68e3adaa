package logger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CorrelationHeader carries the correlation id on HTTP requests and responses.
const CorrelationHeader = "X-Correlation-ID"

const maxCorrelationIDLen = 64

type correlationIDKey struct{}

// CorrelationIDFromContext returns the id attached to ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ContextWithCorrelationID attaches id to ctx. An empty or oversized id is replaced by a new one.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" || len(id) > maxCorrelationIDLen {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// WithCorrelationID attaches a new id unless ctx already has one. Every bot update gets one.
func WithCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return ContextWithCorrelationID(ctx, "")
}

// Middleware reuses the caller's X-Correlation-ID or creates one, and echoes it in the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithCorrelationID(r.Context(), r.Header.Get(CorrelationHeader))
		w.Header().Set(CorrelationHeader, CorrelationIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
