// Package trace carries request-correlation values on a context.Context so
// outbound requests can propagate them as headers. It covers the simple
// X-Request-ID convention and the W3C Trace Context pair
// (traceparent/tracestate) without pulling in a tracing SDK.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	traceParentKey contextKey = "traceparent"
	traceStateKey  contextKey = "tracestate"

	// HeaderXRequestID is the standard header name for request correlation
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = "tracestate"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns a request ID from context if present
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns an existing request ID from context or generates a new one
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext returns a traceparent from context if present
func ParentFromContext(ctx context.Context) (string, bool) {
	if tp, ok := ctx.Value(traceParentKey).(string); ok && tp != "" {
		return tp, true
	}
	return "", false
}

// WithTraceState adds a W3C tracestate value to the context
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, traceStateKey, traceState)
}

// StateFromContext returns a tracestate from context if present
func StateFromContext(ctx context.Context) (string, bool) {
	if ts, ok := ctx.Value(traceStateKey).(string); ok && ts != "" {
		return ts, true
	}
	return "", false
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string {
	return "00-" + randomHex(16) + "-" + randomHex(8) + "-01"
}

// randomHex returns n random bytes hex-encoded. The W3C format forbids
// all-zero trace and span IDs, so the last byte is forced non-zero on the
// (unlikely) zero draw or RNG failure.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil || allZero(b) {
		b[n-1] = 0x01
	}
	return hex.EncodeToString(b)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
