package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/middleware"
)

// RefreshCookie carries the opaque refresh token.  It is scoped to /auth so
// it is only sent to refresh and logout.
const RefreshCookie = "refreshToken"

const (
	accessCookiePath  = "/"
	refreshCookiePath = "/auth"
)

// CookieConfig controls the session cookies.  Secure is off in development
// so the API works over plain http on localhost.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (cc CookieConfig) setSession(c echo.Context, access, refresh string) {
	c.SetCookie(cc.cookie(middleware.AccessCookie, access, accessCookiePath, cc.AccessTTL))
	c.SetCookie(cc.cookie(RefreshCookie, refresh, refreshCookiePath, cc.RefreshTTL))
}

func (cc CookieConfig) clearSession(c echo.Context) {
	for _, ck := range []*http.Cookie{
		cc.cookie(middleware.AccessCookie, "", accessCookiePath, 0),
		cc.cookie(RefreshCookie, "", refreshCookiePath, 0),
	} {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		c.SetCookie(ck)
	}
}

func refreshToken(c echo.Context) string {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return ck.Value
}
