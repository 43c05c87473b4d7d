// FilePath: api/middleware/api.middleware.auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fleetpulse/hub/internal/auth"
	"github.com/fleetpulse/hub/internal/errors"
)

// TokenValidator verifies a bearer token and resolves the user and role
// set behind it.
type TokenValidator interface {
	Identify(ctx context.Context, token string) (string, []string, error)
}

// JWTMiddleware guards the REST surface with the same token validation the
// telemetry gateway uses for its handshake.
type JWTMiddleware struct {
	validator TokenValidator
}

func NewJWTMiddleware(validator TokenValidator) *JWTMiddleware {
	return &JWTMiddleware{validator: validator}
}

// Authenticate validates the token and adds the user id to the context
func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handleError(w, errors.NewAuthError("no token provided", nil))
			return
		}

		userID, roles, err := m.validator.Identify(r.Context(), token)
		if err != nil {
			handleError(w, errors.NewAuthError("invalid token", err))
			return
		}

		ctx := auth.WithIdentity(r.Context(), userID, roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id stored by Authenticate, or an
// empty string when the request was not authenticated.
func UserID(ctx context.Context) string {
	return auth.UserID(ctx)
}

// Helper functions

func extractToken(r *http.Request) string {
	bearerToken := r.Header.Get("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	return ""
}

func handleError(w http.ResponseWriter, err error) {
	if apiErr, ok := err.(*errors.APIError); ok {
		http.Error(w, apiErr.Message, apiErr.Code)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
