package middleware

import (
	"net/http"
	"strings"
)

// TokenVerifier validates a bearer token and returns the user ID it was
// issued to.
type TokenVerifier interface {
	VerifyAccessToken(token string) (userID string, err error)
}

// RequireAuth is a middleware that rejects requests without a valid Bearer
// token and stores the authenticated user ID in the context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				SetErrorCode(r.Context(), "auth_failed")
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := verifier.VerifyAccessToken(token)
			if err != nil {
				SetErrorCode(r.Context(), "auth_failed")
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := SetUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
