package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/repository"
)

// memUsers is an in-memory UserStore with the same semantics as UserRepo.
type memUsers struct {
	mu       sync.Mutex
	byID     map[string]*model.User
	sessions *memSessions
	failNext error
}

func newMemUsers(sessions *memSessions) *memUsers {
	return &memUsers{byID: map[string]*model.User{}, sessions: sessions}
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, other := range m.byID {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (m *memUsers) VerifyEmail(_ context.Context, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if token != "" && u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			u.EmailVerified = true
			u.EmailVerificationToken = nil
			return nil
		}
	}
	return repository.ErrInvalidToken
}

func (m *memUsers) SetPasswordReset(_ context.Context, id, token string, expires, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expires
	return nil
}

func (m *memUsers) ResetPassword(ctx context.Context, token, hash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if token != "" && u.PasswordResetToken != nil && *u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			u.PasswordHash = hash
			u.PasswordResetToken = nil
			u.PasswordResetExpires = nil
			return u.ID, m.sessions.RevokeAllForUser(ctx, u.ID, now)
		}
	}
	return "", repository.ErrInvalidToken
}

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu     sync.Mutex
	byHash map[string]*model.RefreshToken
}

func newMemSessions() *memSessions {
	return &memSessions{byHash: map[string]*model.RefreshToken{}}
}

func (m *memSessions) Create(_ context.Context, userID, hash string, exp time.Time) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &model.RefreshToken{ID: uuid.NewString(), UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now()}
	m.byHash[hash] = t
	cp := *t
	return &cp, nil
}

func (m *memSessions) FindActive(_ context.Context, hash string, now time.Time) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok || !t.Active(now) {
		return nil, repository.ErrTokenNotActive
	}
	cp := *t
	return &cp, nil
}

func (m *memSessions) Rotate(_ context.Context, oldHash, newHash string, exp, now time.Time) (*model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byHash[oldHash]
	if !ok || !old.Active(now) {
		return nil, repository.ErrTokenNotActive
	}
	next := &model.RefreshToken{ID: uuid.NewString(), UserID: old.UserID, TokenHash: newHash, ExpiresAt: exp, CreatedAt: now}
	m.byHash[newHash] = next
	old.RevokedAt = &now
	old.ReplacedByTokenID = &next.ID
	cp := *next
	return &cp, nil
}

func (m *memSessions) Revoke(_ context.Context, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byHash[hash]; ok && t.RevokedAt == nil {
		t.RevokedAt = &now
	}
	return nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *memSessions) get(hash string) *model.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byHash[hash]
}

// recordingMailer remembers the tokens it was asked to send.
type recordingMailer struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
	err          error
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{verification: map[string]string{}, reset: map[string]string{}}
}

func (r *recordingMailer) SendVerification(_ context.Context, u *model.User, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verification[u.Email] = token
	return r.err
}

func (r *recordingMailer) SendPasswordReset(_ context.Context, u *model.User, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset[u.Email] = token
	return r.err
}
