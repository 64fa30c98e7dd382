package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShareIdempotent(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "x")

	first, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)
	second, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.ExpiresAt.After(first.CreatedAt))
}

func TestCreateShareMissingFile(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "x")
	_, err := s.CreateShare("u1", "nope.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShareExpiry(t *testing.T) {
	s := newTestService(t, 0, 30*time.Millisecond)

	mustUpload(t, s, "u1", "a.txt", "", "x")

	share, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	_, _, err = s.ResolveShare(share.ID)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, _, err = s.ResolveShare(share.ID)
	assert.ErrorIs(t, err, ErrNotFound, "expired share resolves as not found before any sweep")

	// A fresh share for the same file gets a new identifier.
	fresh, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)
	assert.NotEqual(t, share.ID, fresh.ID)
}

func TestShareFollowsMove(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "b.txt", "a", "x")
	require.NoError(t, s.CreateDirectory("u1", "c"))

	share, err := s.CreateShare("u1", "a/b.txt")
	require.NoError(t, err)

	_, err = s.MoveFile("u1", "a/b.txt", "c")
	require.NoError(t, err)

	_, fileID, err := s.ResolveShare(share.ID)
	require.NoError(t, err)
	assert.Equal(t, "c/b.txt", fileID)
}

func TestShareFollowsRename(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "old.txt", "docs", "x")

	share, err := s.CreateShare("u1", "docs/old.txt")
	require.NoError(t, err)

	_, err = s.RenameFile("u1", "docs/old.txt", "new.txt")
	require.NoError(t, err)

	_, fileID, err := s.ResolveShare(share.ID)
	require.NoError(t, err)
	assert.Equal(t, "docs/new.txt", fileID)
}

func TestShareFollowsFolderRename(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "f.txt", "old/deep", "x")

	share, err := s.CreateShare("u1", "old/deep/f.txt")
	require.NoError(t, err)

	_, err = s.RenameFolder("u1", "old", "renamed")
	require.NoError(t, err)

	_, fileID, err := s.ResolveShare(share.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed/deep/f.txt", fileID)
}

func TestDeleteShare(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "x")

	share, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	require.NoError(t, s.DeleteShare("u1", "a.txt"))
	_, _, err = s.ResolveShare(share.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteShare("u1", "a.txt"))
}

func TestShareListingAnnotation(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "x")
	mustUpload(t, s, "u1", "b.txt", "", "y")

	share, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	files, err := s.List("u1")
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.True(t, files[0].Shared)
	require.NotNil(t, files[0].ShareExpiresAt)
	assert.True(t, files[0].ShareExpiresAt.Equal(share.ExpiresAt))
	assert.False(t, files[1].Shared)
}

func TestCleanupExpiredShares(t *testing.T) {
	s := newTestService(t, 0, 30*time.Millisecond)

	mustUpload(t, s, "u1", "a.txt", "", "x")
	_, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	removed, err := s.CleanupExpiredShares()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	user, err := s.GetUser("u1")
	require.NoError(t, err)
	assert.Empty(t, user.Shares)
}

func TestShareIndexRebuild(t *testing.T) {
	base := t.TempDir()

	s1, err := New(Config{BasePath: base, ShareTTL: time.Hour})
	require.NoError(t, err)

	mustUpload(t, s1, "u1", "a.txt", "", "x")
	share, err := s1.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	// A fresh engine over the same base path resolves the existing link.
	s2, err := New(Config{BasePath: base, ShareTTL: time.Hour})
	require.NoError(t, err)

	userID, fileID, err := s2.ResolveShare(share.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "a.txt", fileID)
}

func TestOpenShared(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "public content")
	share, err := s.CreateShare("u1", "a.txt")
	require.NoError(t, err)

	rc, entry, err := s.OpenShared(share.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "a.txt", entry.Name)
	assert.Equal(t, int64(14), entry.Size)
}
