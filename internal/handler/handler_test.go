package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/middleware"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/service"
	"github.com/iliyamo/course-platform/internal/utils"
	"github.com/iliyamo/course-platform/internal/validation"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(logging.Nop{})
	return e
}

func as(id middleware.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(middleware.WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorFields(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decode(t, rec)
	detail, _ := body["error"].(map[string]any)
	require.NotNil(t, detail, rec.Body.String())
	fields, _ := detail["fields"].(map[string]any)
	return fields
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// stubAuth records what the handler passes in and returns canned results.
type stubAuth struct {
	summary    model.UserSummary
	refreshRaw string
	logoutRaw  string
	err        error
}

func (s *stubAuth) session() *service.Session {
	return &service.Session{
		User:    s.summary,
		Access:  utils.AccessToken{Token: "access-jwt", Exp: time.Now().Add(15 * time.Minute)},
		Refresh: utils.RefreshToken{Raw: "refresh-raw", Exp: time.Now().Add(7 * 24 * time.Hour)},
	}
}

func (s *stubAuth) Register(context.Context, service.RegisterInput) (*model.UserSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.summary, nil
}

func (s *stubAuth) Login(context.Context, service.LoginInput) (*service.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session(), nil
}

func (s *stubAuth) Refresh(_ context.Context, raw string) (*service.Session, error) {
	s.refreshRaw = raw
	if raw == "" {
		return nil, apperror.Authentication("refresh token missing")
	}
	return s.session(), nil
}

func (s *stubAuth) Logout(_ context.Context, raw string) error {
	s.logoutRaw = raw
	return nil
}

func (s *stubAuth) CurrentUser(_ context.Context, userID string) (*model.UserSummary, error) {
	sum := s.summary
	sum.ID = userID
	return &sum, nil
}

func (s *stubAuth) VerifyEmail(context.Context, string) error { return s.err }

func (s *stubAuth) ForgotPassword(context.Context, string) (string, error) {
	return service.ForgotPasswordMessage, nil
}

func (s *stubAuth) ResetPassword(context.Context, string, string) error { return s.err }

func authEcho(a *stubAuth, cookies CookieConfig) *echo.Echo {
	e := newEcho()
	h := NewAuthHandler(a, cookies)
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.POST("/auth/logout", h.Logout)
	e.GET("/auth/me", h.Me)
	e.GET("/auth/me-as", h.Me, as(middleware.Identity{UserID: "u-1", Role: model.RoleStudent}))
	e.POST("/auth/verify-email", h.VerifyEmail)
	e.POST("/auth/forgot-password", h.ForgotPassword)
	e.POST("/auth/reset-password", h.ResetPassword)
	return e
}

var cookies = CookieConfig{Secure: true, AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}
