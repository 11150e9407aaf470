package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/middleware"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/service"
)

// AuthService is the part of service.AuthService used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.UserSummary, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	Refresh(ctx context.Context, raw string) (*service.Session, error)
	Logout(ctx context.Context, raw string) error
	CurrentUser(ctx context.Context, userID string) (*model.UserSummary, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    AuthService
	Cookies CookieConfig
}

func NewAuthHandler(auth AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies}
}

type userResp struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    model.UserSummary `json:"user"`
}

// Register: create an unverified student and request the verification mail.
// No session is opened.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResp{
		Success: true,
		Message: "Registration successful. Please check your email to verify your account.",
		User:    *u,
	})
}

// Login: verify credentials and set both session cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, in)
	if err != nil {
		return err
	}
	h.Cookies.setSession(c, sess.Access.Token, sess.Refresh.Raw)
	return c.JSON(http.StatusOK, userResp{Success: true, Message: "Login successful", User: sess.User})
}

// Refresh: rotate the refresh cookie and issue a new access cookie.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, refreshToken(c))
	if err != nil {
		return err
	}
	h.Cookies.setSession(c, sess.Access.Token, sess.Refresh.Raw)
	return c.JSON(http.StatusOK, ok("Token refreshed successfully"))
}

// Logout: revoke the presented refresh token and clear the cookies.  It does
// not require an access token, so an expired session can still log out.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, refreshToken(c)); err != nil {
		return err
	}
	h.Cookies.clearSession(c)
	return c.JSON(http.StatusOK, ok("Logout successful"))
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	id, found := middleware.IdentityFrom(c.Request().Context())
	if !found {
		return apperror.Authentication("authentication required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.CurrentUser(ctx, id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResp{Success: true, User: *u})
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var in service.VerifyEmailInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.VerifyEmail(ctx, in.Token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Email verified successfully"))
}

// ForgotPassword always answers with the same message.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var in service.ForgotPasswordInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.Auth.ForgotPassword(ctx, in.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok(msg))
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var in service.ResetPasswordInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, in.Token, in.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Password reset successfully"))
}
