package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/homebooks/internal/auth"
)

func TestLoginValidation(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       "",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			method:     http.MethodPost,
			body:       `{"email":"nope","password":"secretpass"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty password",
			method:     http.MethodPost,
			body:       `{"email":"alice@example.com","password":""}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	h := NewAuthHandlers(nil, nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/auth/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	tokens := auth.NewJWTService("refresh-test-secret")
	h := NewAuthHandlers(nil, nil, tokens, nil)

	access, err := tokens.GenerateAccessToken("user-1")
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"`+access+`"}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, rec); code != ErrCodeAuthFailed {
		t.Errorf("error code = %q, want %q", code, ErrCodeAuthFailed)
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	tokens := auth.NewJWTService("refresh-test-secret")
	h := NewAuthHandlers(nil, nil, tokens, nil)

	refresh, err := tokens.GenerateRefreshToken("user-1")
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"`+refresh+`"}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected a new access token")
	}
	if resp.RefreshToken != "" {
		t.Error("refresh endpoint must not issue a new refresh token")
	}

	userID, err := tokens.VerifyAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("user id = %q, want user-1", userID)
	}
}

func TestRefreshRejectsEmptyToken(t *testing.T) {
	h := NewAuthHandlers(nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":""}`))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
