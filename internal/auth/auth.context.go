// FilePath: internal/auth/auth.context.go
package auth

import "context"

type contextKey string

const identityContextKey contextKey = "identity"

type identity struct {
	userID string
	roles  []string
}

// WithIdentity stores the authenticated user and their roles on the context.
func WithIdentity(ctx context.Context, userID string, roles []string) context.Context {
	return context.WithValue(ctx, identityContextKey, identity{userID: userID, roles: roles})
}

// UserID returns the authenticated user id, or an empty string when the
// context carries no identity.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(identityContextKey).(identity); ok {
		return id.userID
	}
	return ""
}

// Roles returns the roles granted to the authenticated user. An anonymous
// or role-less context is treated as guest.
func Roles(ctx context.Context) []string {
	if id, ok := ctx.Value(identityContextKey).(identity); ok && len(id.roles) > 0 {
		return id.roles
	}
	return []string{"guest"}
}
