package contextkeys

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserID is the context key for the authenticated user's ID (the token subject).
	UserID contextKey = "userID"
	// UserEmail is the context key for the authenticated user's email.
	UserEmail contextKey = "userEmail"
	// UserRole is the context key for the authenticated user's role.
	UserRole contextKey = "userRole"
)

// WithPrincipal stores the verified principal in ctx.
func WithPrincipal(ctx context.Context, userID, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserID, userID)
	ctx = context.WithValue(ctx, UserEmail, email)
	return context.WithValue(ctx, UserRole, role)
}

// UserIDFrom returns the authenticated user id, or "" when the request is anonymous.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// RoleFrom returns the authenticated user's role.
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(UserRole).(string)
	return role
}
