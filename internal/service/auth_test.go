package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/utils"
)

type authFixture struct {
	svc      *AuthService
	users    *memUsers
	sessions *memSessions
	mailer   *recordingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	sessions := newMemSessions()
	users := newMemUsers(sessions)
	mailer := newRecordingMailer()
	svc := NewAuthService(users, sessions, mailer, logging.Nop{}, AuthConfig{
		JWTSecret:     "test-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		ResetTokenTTL: time.Hour,
		BcryptCost:    bcrypt.MinCost,
	})
	return &authFixture{svc: svc, users: users, sessions: sessions, mailer: mailer}
}

var alice = RegisterInput{Email: "a@x.com", Password: "Abcd123!", FirstName: "A", LastName: "B"}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.As(err).Kind, "error: %v", err)
}

func TestRegister_CreatesUnverifiedStudent(t *testing.T) {
	f := newAuthFixture(t)

	sum, err := f.svc.Register(context.Background(), RegisterInput{
		Email: " A@X.com", Password: "Abcd123!", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sum.Email)
	assert.Equal(t, model.RoleStudent, sum.Role)
	assert.False(t, sum.EmailVerified)

	u, err := f.users.GetByID(context.Background(), sum.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "Abcd123!"))
	require.NotNil(t, u.EmailVerificationToken)
	assert.Equal(t, *u.EmailVerificationToken, f.mailer.verification["a@x.com"])
	assert.Empty(t, f.sessions.byHash, "registration does not open a session")
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), RegisterInput{
		Email: "A@x.com", Password: "Other123!", FirstName: "C", LastName: "D",
	})
	requireKind(t, err, apperror.KindConflict)
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.err = errors.New("broker down")

	_, err := f.svc.Register(context.Background(), alice)
	assert.NoError(t, err)
}

func TestLogin_GenericErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)

	_, errUnknown := f.svc.Login(context.Background(), LoginInput{Email: "b@x.com", Password: "Abcd123!"})
	_, errWrong := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcd123?"})

	requireKind(t, errUnknown, apperror.KindAuthentication)
	requireKind(t, errWrong, apperror.KindAuthentication)
	assert.Equal(t, apperror.As(errUnknown).Message, apperror.As(errWrong).Message)
}

func TestLogin_IssuesTokens(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)

	sess, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcd123!"})
	require.NoError(t, err)

	claims, err := utils.ParseAccessToken("test-secret", sess.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, model.RoleStudent, claims.Role)

	row := f.sessions.get(utils.HashRefreshRaw(sess.Refresh.Raw))
	require.NotNil(t, row, "only the hash is stored")
	assert.True(t, row.Active(time.Now()))

	u, _ := f.users.GetByID(context.Background(), sess.User.ID)
	assert.NotNil(t, u.LastLogin)
}

func TestRefresh_RotatesAndOldTokenFails(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	first, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcd123!"})
	require.NoError(t, err)

	second, err := f.svc.Refresh(context.Background(), first.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, first.Refresh.Raw, second.Refresh.Raw)

	old := f.sessions.get(utils.HashRefreshRaw(first.Refresh.Raw))
	require.NotNil(t, old.RevokedAt)
	require.NotNil(t, old.ReplacedByTokenID)
	assert.Equal(t, f.sessions.get(utils.HashRefreshRaw(second.Refresh.Raw)).ID, *old.ReplacedByTokenID)

	_, err = f.svc.Refresh(context.Background(), first.Refresh.Raw)
	requireKind(t, err, apperror.KindAuthentication)

	_, err = f.svc.Refresh(context.Background(), second.Refresh.Raw)
	assert.NoError(t, err)
}

func TestRefresh_ConcurrentUseSucceedsOnce(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	sess, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcd123!"})
	require.NoError(t, err)

	const n = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(context.Background(), sess.Refresh.Raw); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestRefresh_UnknownOrMissingToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Refresh(context.Background(), "")
	requireKind(t, err, apperror.KindAuthentication)
	_, err = f.svc.Refresh(context.Background(), "deadbeef")
	requireKind(t, err, apperror.KindAuthentication)
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	sess, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Abcd123!"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), sess.Refresh.Raw))
	require.NoError(t, f.svc.Logout(context.Background(), sess.Refresh.Raw))
	require.NoError(t, f.svc.Logout(context.Background(), ""))

	row := f.sessions.get(utils.HashRefreshRaw(sess.Refresh.Raw))
	assert.NotNil(t, row.RevokedAt)
	assert.Nil(t, row.ReplacedByTokenID)

	_, err = f.svc.Refresh(context.Background(), sess.Refresh.Raw)
	requireKind(t, err, apperror.KindAuthentication)
}

func TestVerifyEmail_SucceedsExactlyOnce(t *testing.T) {
	f := newAuthFixture(t)
	sum, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	token := f.mailer.verification["a@x.com"]

	require.NoError(t, f.svc.VerifyEmail(context.Background(), token))
	requireKind(t, f.svc.VerifyEmail(context.Background(), token), apperror.KindValidation)

	me, err := f.svc.CurrentUser(context.Background(), sum.ID)
	require.NoError(t, err)
	assert.True(t, me.EmailVerified)
}

func TestForgotPassword_SameMessageForUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)

	known, err := f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	unknown, err := f.svc.ForgotPassword(context.Background(), "nobody@x.com")
	require.NoError(t, err)

	assert.Equal(t, ForgotPasswordMessage, known)
	assert.Equal(t, known, unknown)
	assert.NotEmpty(t, f.mailer.reset["a@x.com"])
	assert.NotContains(t, f.mailer.reset, "nobody@x.com")
}

func TestForgotPassword_OverwritesPreviousToken(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)

	_, err = f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	first := f.mailer.reset["a@x.com"]
	_, err = f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)

	requireKind(t, f.svc.ResetPassword(context.Background(), first, "Newpass1!"), apperror.KindValidation)
}

func TestResetPassword_RevokesEverySession(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	login := LoginInput{Email: "a@x.com", Password: "Abcd123!"}
	s1, err := f.svc.Login(context.Background(), login)
	require.NoError(t, err)
	s2, err := f.svc.Login(context.Background(), login)
	require.NoError(t, err)

	_, err = f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)
	token := f.mailer.reset["a@x.com"]

	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "Newpass1!"))

	for _, raw := range []string{s1.Refresh.Raw, s2.Refresh.Raw} {
		_, err := f.svc.Refresh(context.Background(), raw)
		requireKind(t, err, apperror.KindAuthentication)
	}
	_, err = f.svc.Login(context.Background(), login)
	requireKind(t, err, apperror.KindAuthentication)
	_, err = f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "Newpass1!"})
	assert.NoError(t, err)

	requireKind(t, f.svc.ResetPassword(context.Background(), token, "Again123!"), apperror.KindValidation)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), alice)
	require.NoError(t, err)
	_, err = f.svc.ForgotPassword(context.Background(), "a@x.com")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	err = f.svc.ResetPassword(context.Background(), f.mailer.reset["a@x.com"], "Newpass1!")
	requireKind(t, err, apperror.KindValidation)
}

func TestScenario_RegisterLoginRefreshLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, alice)
	require.NoError(t, err)
	sess, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "Abcd123!"})
	require.NoError(t, err)
	next, err := f.svc.Refresh(ctx, sess.Refresh.Raw)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, sess.Refresh.Raw)
	requireKind(t, err, apperror.KindAuthentication)

	require.NoError(t, f.svc.Logout(ctx, next.Refresh.Raw))
	_, err = f.svc.Refresh(ctx, next.Refresh.Raw)
	requireKind(t, err, apperror.KindAuthentication)
}
