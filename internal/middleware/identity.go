package middleware

// identity.go carries the authenticated caller through the request
// context.  Handlers read it with IdentityFrom; nothing is stored in echo's
// untyped context map.

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Identity is the authenticated caller as re-read from the users table.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by Authenticate, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// setIdentity attaches id to the request held by c.
func setIdentity(c echo.Context, id Identity) {
	c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
}

// userID extracts a user identifier for rate limit keys.  It returns "anon"
// when no user is authenticated.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c.Request().Context()); ok && id.UserID != "" {
		return id.UserID
	}
	return "anon"
}
