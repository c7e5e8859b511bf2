package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubVerifier accepts one fixed token.
type stubVerifier struct {
	valid  string
	userID string
}

func (v stubVerifier) VerifyAccessToken(token string) (string, error) {
	if token == v.valid {
		return v.userID, nil
	}
	return "", errors.New("invalid token")
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{valid: "good-token", userID: "u1"}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID string
	}{
		{"valid token", "Bearer good-token", http.StatusOK, "u1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID string
			handler := RequireAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUserID != tt.wantUserID {
				t.Errorf("user id = %q, want %q", gotUserID, tt.wantUserID)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") != "Bearer" {
					t.Error("401 missing WWW-Authenticate header")
				}
			}
		})
	}
}
