// Package context carries request-scoped values across the lookup pipeline:
// the correlation ID, the authenticated requester, the caller's network
// metadata and the outbound operation name.
package context

import (
	"context"

	"3tcapital/phonecheck/internal/core/audit"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// CorrelationIDKey is the context key for correlation IDs.
	CorrelationIDKey contextKey = "correlation_id"
	requesterKey     contextKey = "requester"
	clientKey        contextKey = "client_metadata"
	operationKey     contextKey = "operation"
)

// ClientMetadata describes where an inbound request came from.
type ClientMetadata struct {
	IPAddress string
	UserAgent string
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID retrieves the correlation ID from the context.
// Returns an empty string if no correlation ID is present.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequester stores the verified identity of the caller.
func WithRequester(ctx context.Context, identity audit.Identity) context.Context {
	return context.WithValue(ctx, requesterKey, identity)
}

// GetRequester returns the caller identity, or nil for anonymous requests.
func GetRequester(ctx context.Context) *audit.Identity {
	if identity, ok := ctx.Value(requesterKey).(audit.Identity); ok && identity.Subject != "" {
		return &identity
	}
	return nil
}

// WithClientMetadata stores the caller's address and user agent.
func WithClientMetadata(ctx context.Context, meta ClientMetadata) context.Context {
	return context.WithValue(ctx, clientKey, meta)
}

// GetClientMetadata returns the stored client metadata, or the zero value.
func GetClientMetadata(ctx context.Context) ClientMetadata {
	if meta, ok := ctx.Value(clientKey).(ClientMetadata); ok {
		return meta
	}
	return ClientMetadata{}
}

// WithOperation names the outbound call about to be made, for logs and metrics.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey, operation)
}

// GetOperation returns the outbound operation name, or an empty string.
func GetOperation(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey).(string); ok {
		return op
	}
	return ""
}
