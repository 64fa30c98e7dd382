package drive

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestService builds a Service over a temp directory.
func newTestService(t *testing.T, defaultQuota int64, shareTTL time.Duration) *Service {
	t.Helper()
	s, err := New(Config{
		BasePath:     t.TempDir(),
		DefaultQuota: defaultQuota,
		ShareTTL:     shareTTL,
	})
	require.NoError(t, err)
	return s
}

// mustUpload uploads content and fails the test on error.
func mustUpload(t *testing.T, s *Service, userID, filename, folder, content string) *FileEntry {
	t.Helper()
	entry, err := s.Upload(userID, strings.NewReader(content), int64(len(content)), filename, folder)
	require.NoError(t, err)
	return entry
}

// readFile opens a file through the service and returns its content.
func readFile(t *testing.T, s *Service, userID, fileID string) string {
	t.Helper()
	rc, _, err := s.Open(userID, fileID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}
