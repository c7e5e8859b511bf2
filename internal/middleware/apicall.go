package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/onnwee/homebooks/internal/audit"
)

// APICallLedger persists one api_calls row per inbound request.
type APICallLedger interface {
	RecordCall(ctx context.Context, call *audit.APICall) error
}

// APICall is a middleware that records one api_calls ledger row before any
// business logic runs and stores its ID in the request context. Every
// handler that mutates data hands that ID to the audit engine, which
// validates the row exists.
//
// Fail-closed: if the ledger write fails the request is rejected, because a
// mutation without an audit linkage target must never proceed.
func APICall(ledger APICallLedger, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			call := &audit.APICall{
				ID:        uuid.New().String(),
				UserID:    GetUserID(r.Context()),
				IPAddress: extractIPAddress(r),
				UserAgent: r.UserAgent(),
				Method:    r.Method,
				Route:     r.URL.Path,
			}

			if err := ledger.RecordCall(r.Context(), call); err != nil {
				logger.Error("failed to record api call",
					slog.String("error", err.Error()),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				SetErrorCode(r.Context(), "audit_unavailable")
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := SetAPICallID(r.Context(), call.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractIPAddress extracts the client IP address from an HTTP request.
// It checks X-Forwarded-For, X-Real-IP, and RemoteAddr in that order, and
// strips the port so the value fits the inet column.
func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Use the first IP in the chain, trimming whitespace per RFC 7239
		firstIP := xff
		if idx := strings.Index(xff, ","); idx != -1 {
			firstIP = xff[:idx]
		}
		firstIP = strings.TrimSpace(firstIP)
		if firstIP != "" {
			return stripPort(firstIP)
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return stripPort(strings.TrimSpace(xri))
	}

	return stripPort(r.RemoteAddr)
}

// stripPort removes a port suffix if present; the input may be a bare IP.
func stripPort(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
