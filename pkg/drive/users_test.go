package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := newTestService(t, 10*1024, time.Hour)

	user, err := s.CreateUser("Alice@Example.com", "Alice", "s3cret", 0, false)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, int64(10*1024), user.QuotaBytes, "default quota applied")
	assert.False(t, user.Admin)

	got, err := s.Authenticate("alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.Authenticate("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate("nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	_, err := s.CreateUser("a@example.com", "A", "pw", 0, false)
	require.NoError(t, err)

	_, err = s.CreateUser("a@example.com", "A again", "pw2", 0, false)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetOrCreateUser(t *testing.T) {
	s := newTestService(t, 1024, time.Hour)

	first, err := s.GetOrCreateUser("ext-42", "External", 0)
	require.NoError(t, err)
	assert.Equal(t, "ext-42", first.ID)
	assert.Equal(t, int64(1024), first.QuotaBytes)

	again, err := s.GetOrCreateUser("ext-42", "ignored", 9999)
	require.NoError(t, err)
	assert.Equal(t, "External", again.DisplayName, "existing record is returned unchanged")
	assert.Equal(t, int64(1024), again.QuotaBytes)
}

func TestUpdatePassword(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	user, err := s.CreateUser("a@example.com", "A", "old-pw", 0, false)
	require.NoError(t, err)

	err = s.UpdatePassword(user.ID, "wrong", "new-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, s.UpdatePassword(user.ID, "old-pw", "new-pw"))

	_, err = s.Authenticate("a@example.com", "new-pw")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	user, err := s.CreateUser("a@example.com", "A", "old-pw", 0, false)
	require.NoError(t, err)

	require.NoError(t, s.ResetPassword(user.ID, "forced-pw"))
	_, err = s.Authenticate("a@example.com", "forced-pw")
	assert.NoError(t, err)
}

func TestUpdateQuota(t *testing.T) {
	s := newTestService(t, 100, time.Hour)

	user, err := s.CreateUser("a@example.com", "A", "pw", 0, false)
	require.NoError(t, err)

	require.NoError(t, s.UpdateQuota(user.ID, 5))

	mustUpload(t, s, user.ID, "small.txt", "", "abc")
	_, err = s.Upload(user.ID, nil, 10, "big.txt", "")
	var qerr *QuotaExceededError
	assert.ErrorAs(t, err, &qerr)
}

func TestListUsers(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	_, err := s.CreateUser("b@example.com", "B", "pw", 0, false)
	require.NoError(t, err)
	_, err = s.CreateUser("a@example.com", "A", "pw", 0, true)
	require.NoError(t, err)

	users, err := s.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteUser(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	user, err := s.CreateUser("a@example.com", "A", "pw", 0, false)
	require.NoError(t, err)

	mustUpload(t, s, user.ID, "a.txt", "", "x")
	share, err := s.CreateShare(user.ID, "a.txt")
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(user.ID))

	_, err = s.GetUser(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = s.ResolveShare(share.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteUser(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEnsureAdminUser(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	password, err := s.EnsureAdminUser("admin@localhost", "Administrator", "", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, password)

	admin, err := s.FindByEmail("admin@localhost")
	require.NoError(t, err)
	assert.True(t, admin.Admin)
	_, err = s.Authenticate("admin@localhost", password)
	require.NoError(t, err)

	// With an admin present the call is a no-op.
	password, err = s.EnsureAdminUser("other@localhost", "Other", "", 0)
	require.NoError(t, err)
	assert.Empty(t, password)
	_, err = s.FindByEmail("other@localhost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEnsureAdminUserConfiguredHash(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)

	password, err := s.EnsureAdminUser("admin@localhost", "Administrator", string(hash), 0)
	require.NoError(t, err)
	assert.Empty(t, password)

	_, err = s.Authenticate("admin@localhost", "hunter22")
	require.NoError(t, err)
}

func TestResetPasswordFlagsMustChange(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	user, err := s.CreateUser("a@example.com", "A", "old-pw", 0, false)
	require.NoError(t, err)
	assert.False(t, user.MustChangePassword)

	require.NoError(t, s.ResetPassword(user.ID, "temp-pw"))
	user, err = s.GetUser(user.ID)
	require.NoError(t, err)
	assert.True(t, user.MustChangePassword)

	// Picking a new password clears the flag.
	require.NoError(t, s.UpdatePassword(user.ID, "temp-pw", "new-pw"))
	user, err = s.GetUser(user.ID)
	require.NoError(t, err)
	assert.False(t, user.MustChangePassword)
}
