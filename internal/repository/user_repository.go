package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/database"
	"github.com/iliyamo/course-platform/internal/model"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, email_verified,
	email_verification_token, password_reset_token, password_reset_expires,
	created_at, updated_at, last_login`

// UserRepo persists rows of the users table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail lower-cases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u, assigning an ID when empty.  A duplicate email yields
// ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, role, email_verified,
			email_verification_token, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role, u.EmailVerified,
		nullString(u.EmailVerificationToken), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return translate(err, ErrEmailExists)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// TouchLastLogin records a successful login.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET last_login=?, updated_at=? WHERE id=?", at, at, id)
	return err
}

// VerifyEmail consumes a verification token in a single statement, so a
// token can only ever flip one row once.
func (r *UserRepo) VerifyEmail(ctx context.Context, token string, now time.Time) error {
	if token == "" {
		return ErrInvalidToken
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified=1, email_verification_token=NULL, updated_at=?
		WHERE email_verification_token=?`, now, token)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidToken
	}
	return nil
}

// SetPasswordReset stores a reset token, overwriting any previous one.
func (r *UserRepo) SetPasswordReset(ctx context.Context, id, token string, expires, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_token=?, password_reset_expires=?, updated_at=? WHERE id=?`,
		token, expires, now, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword swaps in a new password hash for the holder of an unexpired
// reset token, clears the token and revokes every refresh token of that user.
// All three writes commit together.  It returns the affected user id.
func (r *UserRepo) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	var userID string
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users
			WHERE password_reset_token=? AND password_reset_expires > ?
			LIMIT 1 FOR UPDATE`, token, now).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash=?, password_reset_token=NULL, password_reset_expires=NULL, updated_at=?
			WHERE id=?`, passwordHash, now, userID); err != nil {
			return err
		}
		return revokeAllForUser(ctx, tx, userID, now)
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u                       model.User
		verifyToken, resetToken sql.NullString
		resetExpires, lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.EmailVerified,
		&verifyToken, &resetToken, &resetExpires, &u.CreatedAt, &u.UpdatedAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.EmailVerificationToken = strPtr(verifyToken)
	u.PasswordResetToken = strPtr(resetToken)
	u.PasswordResetExpires = timePtr(resetExpires)
	u.LastLogin = timePtr(lastLogin)
	return &u, nil
}
