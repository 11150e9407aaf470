// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/config"
	"github.com/iliyamo/course-platform/internal/handler"
	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/middleware"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/validation"
)

// Deps is everything New needs.  Redis may be nil, which turns rate
// limiting and caching into no-ops.  Thumbnails is nil when no bucket is
// configured and the upload route is then not mounted.
type Deps struct {
	Log         logging.Logger
	FrontendURL string
	BodyLimit   string
	JWTSecret   string
	Users       middleware.UserLookup
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig

	Auth       *handler.AuthHandler
	Catalog    *handler.CatalogHandler
	Thumbnails *handler.ThumbnailHandler
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(d.Log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.FrontendURL},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(d.BodyLimit))

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	authn := middleware.Authenticate(d.JWTSecret, d.Users)

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, authn, limit)
	RegisterCatalog(e, d.Catalog, d.Thumbnails, CatalogMiddleware{
		Read: middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
		Write: []echo.MiddlewareFunc{
			authn,
			middleware.RequireRole(middleware.Roles(model.RoleAdmin)),
			limit,
			middleware.InvalidateOnWrite(d.Cache, d.Redis, d.Log),
		},
	})
	return e
}

// RegisterRoutes registers routes that need no authentication and are not
// part of a feature group.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.Health)
}

// RegisterAuth mounts /auth.  Entry points that can be brute forced are
// rate limited; /auth/me requires an access credential.  Refresh and logout
// authenticate with the refresh cookie only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn, limit echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, authn)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/forgot-password", a.ForgotPassword, limit)
	g.POST("/reset-password", a.ResetPassword)
}
