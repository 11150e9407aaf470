// Package service holds the application logic between HTTP handlers and
// the stores.  Errors leaving this package are *apperror.Error values.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/repository"
	"github.com/iliyamo/course-platform/internal/utils"
)

// ForgotPasswordMessage is returned by ForgotPassword whether or not the
// address belongs to an account.
const ForgotPasswordMessage = "If the email exists, a password reset link has been sent"

// UserStore is the persistence the auth flow needs for users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	VerifyEmail(ctx context.Context, token string, now time.Time) error
	SetPasswordReset(ctx context.Context, id, token string, expires, now time.Time) error
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) (string, error)
}

// SessionStore persists refresh token lineages.
type SessionStore interface {
	Create(ctx context.Context, userID, tokenHash string, exp time.Time) (*model.RefreshToken, error)
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error)
	Rotate(ctx context.Context, oldHash, newHash string, exp, now time.Time) (*model.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error
}

// AuthConfig carries the secrets and lifetimes used by AuthService.
type AuthConfig struct {
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
}

// Session is what a successful login or refresh hands back to the transport.
type Session struct {
	User    model.UserSummary
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password,max=72"`
	FirstName string `json:"firstName" validate:"required,alphaspace,max=50"`
	LastName  string `json:"lastName" validate:"required,alphaspace,max=50"`
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService implements registration, login and the refresh token state
// machine.  Each refresh token row is Active until it is rotated (revoked
// with a successor), revoked (logout or password reset) or expired.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	mailer   Mailer
	log      logging.Logger
	cfg      AuthConfig
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, sessions SessionStore, mailer Mailer, log logging.Logger, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		mailer:   mailer,
		log:      log,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var errInvalidCredentials = apperror.Authentication("invalid email or password")

// Register creates an unverified student account and requests a
// verification mail.  No session is opened.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.UserSummary, error) {
	email := repository.NormalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, emailTaken()
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, apperror.Internal(err)
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	token, err := utils.NewOneTimeToken()
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.now()
	u := &model.User{
		Email:                  email,
		PasswordHash:           hash,
		FirstName:              in.FirstName,
		LastName:               in.LastName,
		Role:                   model.RoleStudent,
		EmailVerificationToken: &token,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, emailTaken()
		}
		return nil, apperror.Internal(err)
	}

	if err := s.mailer.SendVerification(ctx, u, token); err != nil {
		s.log.Warn(ctx, "verification mail request failed", "user_id", u.ID, "error", err.Error())
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)

	sum := u.Summary()
	return &sum, nil
}

func emailTaken() *apperror.Error {
	return apperror.Conflict("email already registered")
}

// Login checks credentials and opens a new session lineage.  Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.burnPasswordCheck(in.Password)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, errInvalidCredentials
	}

	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if _, err := s.sessions.Create(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, apperror.Internal(err)
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn(ctx, "update last login failed", "user_id", u.ID, "error", err.Error())
	}
	u.LastLogin = &now

	return &Session{User: u.Summary(), Access: access, Refresh: refresh}, nil
}

// Refresh exchanges an active refresh token for a new access/refresh pair.
// The presented token is rotated atomically, so it can succeed only once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, apperror.Authentication("refresh token missing")
	}

	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	next, err := s.sessions.Rotate(ctx, utils.HashRefreshRaw(raw), utils.HashRefreshRaw(refresh.Raw), refresh.Exp, s.now())
	if errors.Is(err, repository.ErrTokenNotActive) {
		return nil, apperror.Authentication("invalid or expired refresh token")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u, err := s.users.GetByID(ctx, next.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Authentication("invalid or expired refresh token")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{User: u.Summary(), Access: access, Refresh: refresh}, nil
}

// Logout revokes the presented refresh token.  Missing, unknown and already
// revoked tokens are accepted so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, utils.HashRefreshRaw(raw), s.now()); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// CurrentUser returns the summary of an authenticated user.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.UserSummary, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Authentication("authentication required")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	sum := u.Summary()
	return &sum, nil
}

// VerifyEmail consumes a verification token.  A token works exactly once.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	err := s.users.VerifyEmail(ctx, token, s.now())
	if errors.Is(err, repository.ErrInvalidToken) {
		return apperror.Validation("invalid verification token", map[string]string{"token": "is invalid"})
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ForgotPassword issues a reset token valid for ResetTokenTTL, replacing any
// earlier one, and requests a reset mail.  The returned message is the same
// whether or not the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ForgotPasswordMessage, nil
	}
	if err != nil {
		return "", apperror.Internal(err)
	}

	token, err := utils.NewOneTimeToken()
	if err != nil {
		return "", apperror.Internal(err)
	}
	now := s.now()
	expires := now.Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetPasswordReset(ctx, u.ID, token, expires, now); err != nil {
		return "", apperror.Internal(err)
	}
	if err := s.mailer.SendPasswordReset(ctx, u, token, expires); err != nil {
		s.log.Warn(ctx, "password reset mail request failed", "user_id", u.ID, "error", err.Error())
	}
	return ForgotPasswordMessage, nil
}

// ResetPassword sets a new password for the holder of a valid reset token
// and revokes every session of that user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperror.Internal(err)
	}
	userID, err := s.users.ResetPassword(ctx, token, hash, s.now())
	if errors.Is(err, repository.ErrInvalidToken) {
		return apperror.Validation("invalid or expired reset token", map[string]string{"token": "is invalid or expired"})
	}
	if err != nil {
		return apperror.Internal(err)
	}
	s.log.Info(ctx, "password reset, sessions revoked", "user_id", userID)
	return nil
}

// burnPasswordCheck spends the same bcrypt work as a real comparison so
// response timing does not reveal whether an email is registered.
func (s *AuthService) burnPasswordCheck(plain string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("not-a-real-password", s.cfg.BcryptCost)
	})
	_ = utils.VerifyPassword(s.dummyHash, plain)
}

// VerifyEmailInput is the body of POST /auth/verify-email.
type VerifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

// ForgotPasswordInput is the body of POST /auth/forgot-password.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput is the body of POST /auth/reset-password.
type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password,max=72"`
}
