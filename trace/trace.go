// Package trace carries the per-call correlation identifier that ties together
// every log line and outgoing attempt of one logical Prolific API call.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// correlationIDKey is the context key for correlation ID values
	correlationIDKey contextKey = "correlation_id"
	// HeaderCorrelationID is the header echoed to the API on every attempt
	HeaderCorrelationID = "X-Correlation-ID"
)

// WithCorrelationID returns a context carrying the given correlation ID.
// Blank IDs are ignored so that a later EnsureCorrelationID still generates one.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID from context if present
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureCorrelationID returns the correlation ID stored in ctx, or a fresh one.
func EnsureCorrelationID(ctx context.Context) string {
	if id, ok := CorrelationIDFromContext(ctx); ok {
		return id
	}
	return NewCorrelationID()
}

// NewCorrelationID generates a random UUIDv4 string.
func NewCorrelationID() string {
	return uuid.New().String()
}
