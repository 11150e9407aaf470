package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/repository"
	"github.com/iliyamo/course-platform/internal/utils"
)

// AccessCookie is the name of the cookie carrying the access token.
const AccessCookie = "accessToken"

// UserLookup re-reads the caller on every authenticated request so deleted
// users and role changes take effect before the token expires.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticate verifies the access token from the accessToken cookie, or
// from an "Authorization: Bearer" header when no cookie is sent, and stores
// the caller's Identity in the request context.
func Authenticate(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c.Request())
			if raw == "" {
				return apperror.Authentication("authentication required")
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return apperror.Authentication("invalid or expired access token")
			}

			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperror.Authentication("invalid or expired access token")
			}
			if err != nil {
				return apperror.Internal(err)
			}

			// The role comes from the row, not the token, so a demotion applies at once.
			setIdentity(c, Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
			return next(c)
		}
	}
}

func accessToken(r *http.Request) string {
	if ck, err := r.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := r.Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// RoleSet is the set of roles allowed through RequireRole.
type RoleSet map[string]struct{}

// Roles builds a RoleSet.
func Roles(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// RequireRole lets a request through only when the authenticated caller has
// one of the allowed roles.  It must run after Authenticate; a request
// without identity is rejected with 401, a role mismatch with 403.
func RequireRole(allowed RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c.Request().Context())
			if !ok {
				return apperror.Authentication("authentication required")
			}
			if !allowed.Has(id.Role) {
				return apperror.Authorization("insufficient permissions")
			}
			return next(c)
		}
	}
}
