package model

import "time"

// Role tags stored in users.role.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents an application user record as stored in the
// `users` table.  The one-time token fields never leave the service;
// handlers respond with UserSummary instead.
type User struct {
	ID                     string     // users.id (UUID)
	Email                  string     // users.email (unique, lower-cased)
	PasswordHash           string     // users.password_hash (bcrypt)
	FirstName              string     // users.first_name
	LastName               string     // users.last_name
	Role                   string     // users.role (student | admin)
	EmailVerified          bool       // users.email_verified
	EmailVerificationToken *string    // users.email_verification_token (nullable)
	PasswordResetToken     *string    // users.password_reset_token (nullable)
	PasswordResetExpires   *time.Time // users.password_reset_expires (nullable)
	CreatedAt              time.Time  // users.created_at
	UpdatedAt              time.Time  // users.updated_at
	LastLogin              *time.Time // users.last_login (nullable)
}

// UserSummary is the public projection of a user.
type UserSummary struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary projects u into its public form.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA‑256 hash.  A row whose RevokedAt is set
// and ReplacedByTokenID is non-nil was rotated; RevokedAt without a successor
// means an explicit logout or password reset.
type RefreshToken struct {
	ID                string     // refresh_tokens.id
	UserID            string     // refresh_tokens.user_id
	TokenHash         string     // refresh_tokens.token_hash
	ExpiresAt         time.Time  // refresh_tokens.expires_at
	CreatedAt         time.Time  // refresh_tokens.created_at
	RevokedAt         *time.Time // refresh_tokens.revoked_at (nullable)
	ReplacedByTokenID *string    // refresh_tokens.replaced_by_token_id (nullable)
}

// Active reports whether the row can still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
