package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usermemory "github.com/meganoshop/backend/internal/domains/users/adapters/memory"
	"github.com/meganoshop/backend/internal/domains/users/ports"
)

type recordingMerger struct {
	merges [][2]any
	err    error
}

func (m *recordingMerger) Merge(_ context.Context, sessionKey string, userID int64) error {
	if m.err != nil {
		return m.err
	}
	m.merges = append(m.merges, [2]any{sessionKey, userID})
	return nil
}

type usersFixture struct {
	repo     *usermemory.Repository
	sessions *usermemory.SessionStore
	merger   *recordingMerger
	svc      *Service
}

func newUsersFixture(t *testing.T) *usersFixture {
	t.Helper()
	f := &usersFixture{
		repo:     usermemory.NewRepository(),
		sessions: usermemory.NewSessionStore(0),
		merger:   &recordingMerger{},
	}
	f.svc = NewService(f.repo, f.sessions, WithCartMerger(f.merger))
	return f
}

func TestRegisterAndLogin(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	created, err := f.svc.Register(ctx, "tok-1", "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEmpty(t, created.PasswordHash)

	user, err := f.svc.Login(ctx, "tok-2", "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	userID, err := f.sessions.Resolve(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)
}

func TestRegister_BindsSessionAndMergesCart(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	created, err := f.svc.Register(ctx, "tok-guest", "bob", "secret")
	require.NoError(t, err)

	userID, err := f.sessions.Resolve(ctx, "tok-guest")
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)

	require.Len(t, f.merger.merges, 1)
	assert.Equal(t, "tok-guest", f.merger.merges[0][0])
	assert.Equal(t, created.ID, f.merger.merges[0][1])
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "", "alice", "secret")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "", "Alice", "secret")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, ports.ErrUsernameTaken)
}

func TestRegister_WeakPassword(t *testing.T) {
	f := newUsersFixture(t)
	_, err := f.svc.Register(context.Background(), "", "carol", "abc")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "", "alice", "secret")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "tok", "alice", "wrong")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newUsersFixture(t)
	_, err := f.svc.Login(context.Background(), "tok", "ghost", "secret")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	f := newUsersFixture(t)
	_, err := f.svc.Login(context.Background(), "tok", "", "secret")
	require.ErrorIs(t, err, ErrAuthentication)
	_, err = f.svc.Login(context.Background(), "tok", "alice", " ")
	require.ErrorIs(t, err, ErrAuthentication)
}

func TestLogin_MergeFailureDoesNotFailSignIn(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "", "alice", "secret")
	require.NoError(t, err)

	f.merger.err = errors.New("merge failed")
	user, err := f.svc.Login(ctx, "tok", "alice", "secret")
	require.NoError(t, err)

	// Session is still bound; the guest cart stays behind for a retry.
	userID, err := f.sessions.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestLogout_UnbindsSession(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "tok", "alice", "secret")
	require.NoError(t, err)

	userID, err := f.sessions.Resolve(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	require.NoError(t, f.svc.Logout(ctx, "tok"))

	userID, err = f.sessions.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.Zero(t, userID)
}

func TestUserIDByEmail(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "", "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, f.svc.SetEmail(ctx, user.ID, "alice@example.com"))

	id, err := f.svc.UserIDByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	id, err = f.svc.UserIDByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = f.svc.UserIDByEmail(ctx, "  ")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestSetEmail_Invalid(t *testing.T) {
	f := newUsersFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "", "alice", "secret")
	require.NoError(t, err)

	err = f.svc.SetEmail(ctx, user.ID, "not-an-email")
	require.ErrorIs(t, err, ErrInvalidInput)
}
