package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/homebooks/internal/auth"
	"github.com/onnwee/homebooks/internal/user"
	"github.com/onnwee/homebooks/internal/validate"
)

// LoginRequest represents the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the request body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries issued tokens back to the client.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthHandlers holds dependencies for authentication HTTP handlers.
type AuthHandlers struct {
	db     *sql.DB
	users  *user.Repository
	tokens *auth.JWTService
	logger *slog.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(db *sql.DB, users *user.Repository, tokens *auth.JWTService, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{db: db, users: users, tokens: tokens, logger: logger}
}

// Login handles POST /auth/login. On success it issues an access and a
// refresh token. Invalid email and wrong password return the same error so
// account existence does not leak.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	email, err := validate.Email(req.Email)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "A valid email is required")
		return
	}
	if req.Password == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Password is required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), h.db, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid email or password")
			return
		}
		h.logger.Error("failed to look up user for login", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to authenticate")
		return
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid email or password")
			return
		}
		h.logger.Error("failed to check password", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to authenticate")
		return
	}

	access, err := h.tokens.GenerateAccessToken(u.ID)
	if err != nil {
		h.logger.Error("failed to generate access token", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to issue token")
		return
	}
	refresh, err := h.tokens.GenerateRefreshToken(u.ID)
	if err != nil {
		h.logger.Error("failed to generate refresh token", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
	})
}

// Refresh handles POST /auth/refresh. It exchanges a valid refresh token for
// a fresh access token. Access tokens are rejected here; the two types are
// not interchangeable.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "refresh_token is required")
		return
	}

	claims, err := h.tokens.ValidateToken(req.RefreshToken)
	if err != nil || claims.Type != auth.TokenTypeRefresh {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid or expired refresh token")
		return
	}

	access, err := h.tokens.GenerateAccessToken(claims.Subject)
	if err != nil {
		h.logger.Error("failed to generate access token", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to issue token")
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(auth.AccessTokenExpiry.Seconds()),
	})
}
