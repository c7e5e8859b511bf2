package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/homebooks/internal/audit"
)

// recordingLedger captures recorded calls and optionally fails.
type recordingLedger struct {
	calls []*audit.APICall
	err   error
}

func (l *recordingLedger) RecordCall(ctx context.Context, call *audit.APICall) error {
	if l.err != nil {
		return l.err
	}
	l.calls = append(l.calls, call)
	return nil
}

func TestAPICallRecordsLedgerRow(t *testing.T) {
	ledger := &recordingLedger{}
	var ctxCallID string
	handler := APICall(ledger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxCallID = GetAPICallID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "203.0.113.9:52100"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(ledger.calls) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.calls))
	}
	call := ledger.calls[0]
	if call.ID == "" || call.ID != ctxCallID {
		t.Errorf("context call ID %q does not match ledger row %q", ctxCallID, call.ID)
	}
	if call.Method != http.MethodPost || call.Route != "/expenses" {
		t.Errorf("recorded %s %s", call.Method, call.Route)
	}
	if call.IPAddress != "203.0.113.9" {
		t.Errorf("ip = %q, want 203.0.113.9", call.IPAddress)
	}
	if call.UserAgent != "test-agent" {
		t.Errorf("user agent = %q", call.UserAgent)
	}
}

func TestAPICallCarriesAuthenticatedUser(t *testing.T) {
	ledger := &recordingLedger{}
	handler := APICall(ledger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/households/h1", nil)
	req = req.WithContext(SetUserID(req.Context(), "u42"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(ledger.calls) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(ledger.calls))
	}
	if got := ledger.calls[0].UserID; got != "u42" {
		t.Errorf("user id = %q, want u42", got)
	}
}

func TestAPICallFailsClosed(t *testing.T) {
	ledger := &recordingLedger{err: errors.New("db down")}
	var reached bool
	handler := APICall(ledger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil))

	if reached {
		t.Error("handler ran despite ledger failure")
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestExtractIPAddress(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr with port", "198.51.100.7:1234", nil, "198.51.100.7"},
		{"x-forwarded-for single", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.4"}, "203.0.113.4"},
		{"x-forwarded-for chain", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.4, 10.0.0.2"}, "203.0.113.4"},
		{"x-real-ip", "10.0.0.1:80", map[string]string{"X-Real-IP": "192.0.2.33"}, "192.0.2.33"},
		{"forwarded-for wins over real-ip", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.4", "X-Real-IP": "192.0.2.33"}, "203.0.113.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := extractIPAddress(req); got != tt.want {
				t.Errorf("extractIPAddress = %q, want %q", got, tt.want)
			}
		})
	}
}
