package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/database"
	"github.com/iliyamo/course-platform/internal/model"
)

// TokenRepo persists refresh token rows.  Only SHA-256 hashes of the raw
// tokens are stored.  Rows are never deleted; revocation sets revoked_at.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Create inserts the root of a new session lineage.
func (r *TokenRepo) Create(ctx context.Context, userID, tokenHash string, exp time.Time) (*model.RefreshToken, error) {
	t := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: exp,
		CreatedAt: time.Now().UTC(),
	}
	if err := insertToken(ctx, r.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindActive returns the unrevoked, unexpired row matching tokenHash or
// ErrTokenNotActive.
func (r *TokenRepo) FindActive(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ? LIMIT 1`,
		tokenHash, now).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotActive
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Rotate exchanges the active row identified by oldHash for a successor
// with newHash.  The old row is locked for the duration of the transaction
// and must still be active when it is revoked, so of two concurrent calls
// with the same token exactly one succeeds; the other gets ErrTokenNotActive.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, exp, now time.Time) (*model.RefreshToken, error) {
	var next *model.RefreshToken
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var oldID, userID string
		err := tx.QueryRowContext(ctx,
			`SELECT id, user_id FROM refresh_tokens
			WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ?
			LIMIT 1 FOR UPDATE`, oldHash, now).Scan(&oldID, &userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotActive
		}
		if err != nil {
			return err
		}

		t := &model.RefreshToken{
			ID:        uuid.NewString(),
			UserID:    userID,
			TokenHash: newHash,
			ExpiresAt: exp,
			CreatedAt: now,
		}
		if err := insertToken(ctx, tx, t); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE refresh_tokens SET revoked_at=?, replaced_by_token_id=?
			WHERE id=? AND revoked_at IS NULL`, now, t.ID, oldID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrTokenNotActive
		}
		next = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Revoke marks a token as revoked.  Unknown or already revoked tokens are
// not an error.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		now, tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string, now time.Time) error {
	return revokeAllForUser(ctx, r.db, userID, now)
}

func revokeAllForUser(ctx context.Context, q database.DBTX, userID string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		now, userID)
	return err
}

func insertToken(ctx context.Context, q database.DBTX, t *model.RefreshToken) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return translate(err, ErrConflict)
	}
	return nil
}
