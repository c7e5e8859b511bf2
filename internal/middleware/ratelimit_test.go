package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInMemoryRateLimitStoreAllow(t *testing.T) {
	tests := []struct {
		name         string
		requestCount int
		limit        int
		wantAllowed  []bool
	}{
		{
			name:         "allows requests under limit",
			requestCount: 3,
			limit:        5,
			wantAllowed:  []bool{true, true, true},
		},
		{
			name:         "blocks requests over limit",
			requestCount: 6,
			limit:        5,
			wantAllowed:  []bool{true, true, true, true, true, false},
		},
		{
			name:         "single request limit",
			requestCount: 3,
			limit:        1,
			wantAllowed:  []bool{true, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewInMemoryRateLimitStore()
			config := RateLimitConfig{RequestsPerWindow: tt.limit, WindowDuration: time.Minute}
			ctx := context.Background()

			for i := 0; i < tt.requestCount; i++ {
				allowed, _ := store.Allow(ctx, "test-key", config)
				if allowed != tt.wantAllowed[i] {
					t.Errorf("request %d: allowed = %v, want %v", i+1, allowed, tt.wantAllowed[i])
				}
			}
		})
	}
}

func TestInMemoryRateLimitStoreKeysIsolated(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	ctx := context.Background()

	if allowed, _ := store.Allow(ctx, "a", config); !allowed {
		t.Fatal("first request for key a blocked")
	}
	if allowed, _ := store.Allow(ctx, "b", config); !allowed {
		t.Error("key b affected by key a's usage")
	}
	if allowed, _ := store.Allow(ctx, "a", config); allowed {
		t.Error("key a not blocked at limit")
	}
}

func TestInMemoryRateLimitStoreWindowReset(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 20 * time.Millisecond}
	ctx := context.Background()

	if allowed, _ := store.Allow(ctx, "k", config); !allowed {
		t.Fatal("first request blocked")
	}
	if allowed, _ := store.Allow(ctx, "k", config); allowed {
		t.Fatal("second request in window allowed")
	}

	time.Sleep(30 * time.Millisecond)
	if allowed, _ := store.Allow(ctx, "k", config); !allowed {
		t.Error("request after window expiry blocked")
	}
}

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{"valid", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}, false},
		{"zero requests", RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, true},
		{"zero window", RateLimitConfig{RequestsPerWindow: 10, WindowDuration: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}
	handler := RateLimiter(store, config, IPKeyFunc())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

func TestUserKeyFuncFallsBackToIP(t *testing.T) {
	keyFn := UserKeyFunc()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:333"
	ipKey := keyFn(req)

	req = req.WithContext(SetUserID(req.Context(), "u1"))
	userKey := keyFn(req)

	if ipKey == userKey {
		t.Error("authenticated and anonymous requests share a key")
	}
}
