// Package ctxutil provides helpers for storing and retrieving values in context.
package ctxutil

import "context"

// key is an unexported type to avoid collisions.
type key int

const (
	requestIDKey key = iota
	clientIDKey
)

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context, if set.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithClientID returns a new context with the given client ID.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID extracts the client ID from the context, if set.
func ClientID(ctx context.Context) string {
	return stringValue(ctx, clientIDKey)
}

// Fields returns the correlation identifiers stored in ctx as log fields.
// Unset identifiers are omitted.
func Fields(ctx context.Context) map[string]any {
	fields := make(map[string]any, 2)
	if id := RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := ClientID(ctx); id != "" {
		fields["client_id"] = id
	}
	return fields
}

func stringValue(ctx context.Context, k key) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(k).(string); ok {
		return s
	}
	return ""
}
