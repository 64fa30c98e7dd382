package drive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrashRoundTrip(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "report.pdf", "docs", "content")

	require.NoError(t, s.MoveToTrash("u1", "docs/report.pdf"))

	// Gone from the active tree, present in trash at the same path.
	_, _, err := s.Open("u1", "docs/report.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	trashed, err := s.ListTrash("u1")
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.Equal(t, "docs/report.pdf", trashed[0].ID)
	assert.Equal(t, int64(7), trashed[0].Size)

	require.NoError(t, s.RestoreFromTrash("u1", "docs/report.pdf"))
	assert.Equal(t, "content", readFile(t, s, "u1", "docs/report.pdf"))

	// The now-empty "docs" directory does not linger in trash.
	_, statErr := os.Stat(filepath.Join(s.trashRoot("u1"), "docs"))
	assert.True(t, os.IsNotExist(statErr))

	trashed, err = s.ListTrash("u1")
	require.NoError(t, err)
	assert.Empty(t, trashed)
}

func TestTrashMissingItem(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "x")
	err := s.MoveToTrash("u1", "nope.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrashConflict(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "first")
	require.NoError(t, s.MoveToTrash("u1", "a.txt"))

	mustUpload(t, s, "u1", "a.txt", "", "second")
	err := s.MoveToTrash("u1", "a.txt")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRestoreConflict(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "first")
	require.NoError(t, s.MoveToTrash("u1", "a.txt"))
	mustUpload(t, s, "u1", "a.txt", "", "second")

	err := s.RestoreFromTrash("u1", "a.txt")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTrashFolderRemovesNestedShares(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "inner.txt", "docs/sub", "x")
	mustUpload(t, s, "u1", "outside.txt", "", "y")

	nested, err := s.CreateShare("u1", "docs/sub/inner.txt")
	require.NoError(t, err)
	outside, err := s.CreateShare("u1", "outside.txt")
	require.NoError(t, err)

	require.NoError(t, s.MoveToTrash("u1", "docs"))

	_, _, err = s.ResolveShare(nested.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	userID, fileID, err := s.ResolveShare(outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "outside.txt", fileID)
}

func TestDeleteFromTrash(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "deep/nested", "x")
	require.NoError(t, s.MoveToTrash("u1", "deep"))

	require.NoError(t, s.DeleteFromTrash("u1", "deep"))

	trashed, err := s.ListTrash("u1")
	require.NoError(t, err)
	assert.Empty(t, trashed)

	err = s.DeleteFromTrash("u1", "deep")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearTrash(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "0123456789")
	mustUpload(t, s, "u1", "b.txt", "docs", "0123456789")
	require.NoError(t, s.MoveToTrash("u1", "a.txt"))
	require.NoError(t, s.MoveToTrash("u1", "docs"))

	require.NoError(t, s.ClearTrash("u1"))

	trashed, err := s.ListTrash("u1")
	require.NoError(t, err)
	assert.Empty(t, trashed)

	total, err := s.TotalUsedBytes("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestListTrashFolders(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "docs/work", "x")
	require.NoError(t, s.MoveToTrash("u1", "docs"))

	folders, err := s.ListTrashFolders("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "docs/work"}, folders)
}
