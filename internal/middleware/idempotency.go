package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/homebooks/internal/idempotency"
)

// IdempotencyKeyHeader is the HTTP header carrying a client retry key.
const IdempotencyKeyHeader = "Idempotency-Key"

// idempotencyResponseWriter captures the response so a successful execution
// can be cached and replayed for retries.
type idempotencyResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func newIdempotencyResponseWriter(w http.ResponseWriter) *idempotencyResponseWriter {
	return &idempotencyResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func (w *idempotencyResponseWriter) WriteHeader(statusCode int) {
	if !w.written {
		w.statusCode = statusCode
		w.written = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.body.Write(b)
	return n, err
}

// writeIdempotencyError writes an error in the API's standard shape. The api
// package depends on middleware, so the body is built here directly.
func writeIdempotencyError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	SetErrorCode(r.Context(), code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// Idempotency returns a middleware that makes POSTs safely retryable. When a
// request carries an Idempotency-Key header, the first successful response is
// cached under that key and later requests with the same key replay it
// instead of executing again. Requests without the header pass through
// untouched. Only 2xx responses are cached, so a client can retry a failed
// creation with the same key.
func Idempotency(repo idempotency.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := idempotency.ValidateKey(key); err != nil {
				if errors.Is(err, idempotency.ErrKeyTooLong) {
					writeIdempotencyError(w, r, http.StatusBadRequest, "idempotency_key_too_long",
						"Idempotency-Key exceeds maximum length of 64 characters")
					return
				}
				writeIdempotencyError(w, r, http.StatusBadRequest, "invalid_idempotency_key",
					"Invalid Idempotency-Key format")
				return
			}

			existing, err := repo.Get(key)
			if err == nil {
				slog.Info("replaying cached idempotent response",
					"key", key,
					"status", existing.ResponseStatusCode,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(existing.ResponseStatusCode)
				w.Write([]byte(existing.ResponseBody))
				return
			}
			if !errors.Is(err, idempotency.ErrKeyNotFound) {
				// Storage trouble must not block the write itself.
				slog.Error("failed to check idempotency key", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			capture := newIdempotencyResponseWriter(w)
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}

			responseBody := capture.body.String()
			record := &idempotency.Key{
				Key:                key,
				Method:             r.Method,
				Route:              r.URL.Path,
				ResponseHash:       idempotency.ComputeResponseHash(responseBody),
				Status:             idempotency.StatusCompleted,
				ResponseBody:       responseBody,
				ResponseStatusCode: capture.statusCode,
			}
			if err := repo.Store(record); err != nil {
				// Response is already sent; the retry just won't be cached.
				slog.Error("failed to store idempotency key", "key", key, "error", err)
			}
		})
	}
}
