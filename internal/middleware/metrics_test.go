package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/auth/login", "/auth/login"},
		{"/expenses", "/expenses"},
		{"/expenses/8f14e45f", "/expenses/{id}"},
		{"/households/abc-def", "/households/{id}"},
		{"/budgets/b1", "/budgets/{id}"},
		{"/budgets/b1/months/3", "/budgets/{id}/months/{month}"},
		{"/unknown/route", "/other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsRegister(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	// Registering the same collectors twice must fail.
	if err := m.Register(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/expenses", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no metrics recorded")
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "http_requests_total" {
			found = true
			for _, metric := range mf.GetMetric() {
				if metric.GetCounter().GetValue() != 1 {
					t.Errorf("counter = %v, want 1", metric.GetCounter().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("http_requests_total not gathered")
	}
}
