package middleware

import (
	"net/http"
	"strings"

	"github.com/creatorkit/backend/internal/contextkeys"
	"github.com/creatorkit/backend/internal/domain"
	"github.com/creatorkit/backend/internal/handler"
)

// TokenVerifier resolves a bearer token to a principal.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Claims, error)
}

// Auth creates a JWT authentication middleware.
func Auth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				handler.Error(w, domain.ErrUnauthorized("no token provided"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handler.Error(w, domain.ErrUnauthorized("invalid authorization header"))
				return
			}

			claims, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				handler.Error(w, domain.ErrUnauthorized("invalid or expired token"))
				return
			}

			ctx := contextkeys.WithPrincipal(r.Context(), claims.Sub, claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
