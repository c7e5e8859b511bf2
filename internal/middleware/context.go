// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"context"
)

// userIDKey is the context key for the authenticated user ID.
type userIDKey struct{}

// apiCallIDKey is the context key for the api-call ledger row ID.
type apiCallIDKey struct{}

// errorCodeKey is the context key for the error code holder.
type errorCodeKey struct{}

// errorCodeHolder carries the error code from handler to logging middleware.
// The Logging middleware injects one per request; SetErrorCode mutates it in
// place so the code is visible upstream without threading a new context back.
type errorCodeHolder struct {
	code string
}

// SetUserID stores the authenticated user ID in the context. Called by the
// auth middleware after validating the token.
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// GetUserID retrieves the user ID from context. Returns empty string if not present.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// SetAPICallID stores the api-call ledger row ID in the context. Called by
// the APICall middleware after recording the row; business handlers pass it
// to the audit engine.
func SetAPICallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, apiCallIDKey{}, id)
}

// GetAPICallID retrieves the api-call ID from context. Returns empty string if not present.
func GetAPICallID(ctx context.Context) string {
	if id, ok := ctx.Value(apiCallIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withErrorCode injects an error code holder for the request.
func withErrorCode(ctx context.Context) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, &errorCodeHolder{})
}

// SetErrorCode records an error code for the current request so the logging
// middleware can include it. A no-op when no holder is present (e.g. in
// handlers exercised without the Logging middleware).
func SetErrorCode(ctx context.Context, code string) {
	if h, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		h.code = code
	}
}

// GetErrorCode retrieves the error code for the current request. Returns
// empty string if not present.
func GetErrorCode(ctx context.Context) string {
	if h, ok := ctx.Value(errorCodeKey{}).(*errorCodeHolder); ok {
		return h.code
	}
	return ""
}
