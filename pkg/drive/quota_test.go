package drive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageAccounting(t *testing.T) {
	s := newTestService(t, 100, time.Hour)

	mustUpload(t, s, "u1", "a.txt", "", "0123456789")
	mustUpload(t, s, "u1", "b.txt", "docs", "01234")

	used, err := s.UsedBytes("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), used)

	require.NoError(t, s.MoveToTrash("u1", "a.txt"))

	used, err = s.UsedBytes("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), used)

	total, err := s.TotalUsedBytes("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), total, "trash still counts against the quota")

	usage, err := s.GetUsage("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), usage.UsedBytes)
	assert.Equal(t, int64(10), usage.TrashBytes)
	assert.Equal(t, int64(100), usage.QuotaBytes)
}

func TestUsageUnknownUser(t *testing.T) {
	s := newTestService(t, 0, time.Hour)

	// Trees that do not exist count as empty.
	used, err := s.UsedBytes("ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)
}
