// Package logging wires up log/slog for the daemon: a context-propagating
// handler carrying the HTTP request ID, and a choice between a colorized
// console handler (TTY stdout) and JSON (everything else).
//
// Adapted from petabytecl-gaz/logger: the same ContextHandler wrapping
// pattern and the same tint-vs-JSON handler choice, trimmed to the one
// context value this daemon propagates (request ID — there is no tracing
// span/trace ID here, since spec §1 scopes out distributed execution).
package logging

import (
	"context"
	"log/slog"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// RequestIDKey is the log attribute key for the request ID.
const RequestIDKey = "request_id"

// WithRequestID returns a context carrying requestID for later log calls.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestID extracts the request ID from ctx, or "" if absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextHandler adds the request ID attribute to every record before
// delegating to the wrapped handler.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if reqID := RequestID(ctx); reqID != "" {
			r.AddAttrs(slog.String(RequestIDKey, reqID))
		}
	}
	return h.Handler.Handle(ctx, r)
}
