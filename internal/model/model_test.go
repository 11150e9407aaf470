package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Active(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	revoked := now.Add(-time.Minute)

	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour)}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now}).Active(now), "expiry instant is already expired")
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}).Active(now))
}

func TestCourseFilter_Offset(t *testing.T) {
	assert.Equal(t, 0, CourseFilter{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, CourseFilter{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, CourseFilter{Page: 0, Limit: 10}.Offset())
	assert.Equal(t, 0, CourseFilter{Page: 5, Limit: 0}.Offset())
}

func TestCourseFilter_OffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, CourseFilter{Page: 1 << 62, Limit: 100}.Offset())
	assert.Equal(t, math.MaxInt, CourseFilter{Page: math.MaxInt, Limit: 2}.Offset())
}

func TestPublishedAtFor(t *testing.T) {
	now := time.Now()
	assert.Nil(t, PublishedAtFor(false, now))
	got := PublishedAtFor(true, now)
	if assert.NotNil(t, got) {
		assert.True(t, got.Equal(now))
	}
}

func TestUser_SummaryOmitsSecrets(t *testing.T) {
	tok := "secret"
	u := &User{ID: "u1", Email: "a@x.com", PasswordHash: "h", EmailVerificationToken: &tok, Role: RoleStudent}
	s := u.Summary()
	assert.Equal(t, "u1", s.ID)
	assert.Equal(t, RoleStudent, s.Role)
}
