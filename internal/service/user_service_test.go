package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"QA_Community/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to   string
	body string
	err  error
}

func (m *fakeMailer) Send(to, _, body string) error {
	m.to = to
	m.body = body
	return m.err
}

func (m *fakeMailer) code() string {
	return regexp.MustCompile(`<b[^>]*>(\d+)</b>`).FindStringSubmatch(m.body)[1]
}

func TestRegisterLoginValidate(t *testing.T) {
	ctx := context.Background()
	rdb, _ := testutil.NewRedis(t)
	users := NewUserService(testutil.NewDB(t), rdb)

	u, err := users.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	_, err = users.Register(ctx, "alice", "secret1", "other@example.com")
	assert.Equal(t, KindInvalidInput, KindOf(err))
	_, err = users.Register(ctx, "bob", "123", "bob@example.com")
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = users.Login(ctx, "alice", "wrong-pw")
	assert.Equal(t, KindInvalidInput, KindOf(err))

	pair, err := users.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	claims, err := users.ValidateAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	require.NoError(t, users.Logout(ctx, u.ID))
	_, err = users.ValidateAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefreshReplacesSession(t *testing.T) {
	ctx := context.Background()
	rdb, _ := testutil.NewRedis(t)
	users := NewUserService(testutil.NewDB(t), rdb)

	_, err := users.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	pair, err := users.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	next, err := users.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = users.ValidateAccess(ctx, next.AccessToken)
	require.NoError(t, err)

	_, err = users.Refresh(ctx, pair.AccessToken)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	rdb, _ := testutil.NewRedis(t)
	users := NewUserService(testutil.NewDB(t), rdb)

	_, err := users.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, KindInvalidInput, KindOf(users.ChangePassword(ctx, "alice", "nope", "secret2")))
	require.NoError(t, users.ChangePassword(ctx, "alice", "secret1", "secret2"))

	_, err = users.Login(ctx, "alice", "secret2")
	require.NoError(t, err)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	users := NewUserService(db, rdb)
	mailer := &fakeMailer{}
	reset := NewResetService(db, rdb, users, mailer)

	_, err := users.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, KindNotFound, KindOf(reset.SendResetCode(ctx, "nobody@example.com")))

	require.NoError(t, reset.SendResetCode(ctx, "alice@example.com"))
	assert.Equal(t, "alice@example.com", mailer.to)
	code := mailer.code()
	assert.Len(t, code, 6)

	assert.Equal(t, KindInvalidInput, KindOf(reset.SendResetCode(ctx, "alice@example.com")))

	assert.Equal(t, KindInvalidInput, KindOf(reset.ResetPassword(ctx, "alice@example.com", "not-it", "newpass")))
	require.NoError(t, reset.ResetPassword(ctx, "alice@example.com", code, "newpass"))
	assert.Equal(t, KindInvalidInput, KindOf(reset.ResetPassword(ctx, "alice@example.com", code, "again!")))

	_, err = users.Login(ctx, "alice", "newpass")
	require.NoError(t, err)
}

func TestPasswordResetMailFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	users := NewUserService(db, rdb)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	reset := NewResetService(db, rdb, users, mailer)

	_, err := users.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	assert.Equal(t, KindInternal, KindOf(reset.SendResetCode(ctx, "alice@example.com")))
	mailer.err = nil
	require.NoError(t, reset.SendResetCode(ctx, "alice@example.com"))
}
