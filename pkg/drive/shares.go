package drive

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// shareIDBytes sets the entropy of a share link identifier. 32 random
// bytes give 256 bits, rendered as 43 URL-safe characters.
const shareIDBytes = 32

// CreateShare mints a time-limited public link for a file in the user's
// active tree. If an unexpired link for the same file already exists, it
// is returned unchanged rather than duplicated.
func (s *Service) CreateShare(userID, fileID string) (*Share, error) {
	rel, err := s.validRelPath(fileID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	abs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, notFoundf("file %s", rel)
	}

	now := time.Now().UTC()
	for i := range user.Shares {
		if user.Shares[i].FileID == rel && !user.Shares[i].Expired(now) {
			return &user.Shares[i], nil
		}
	}

	id, err := randomID(shareIDBytes)
	if err != nil {
		return nil, err
	}
	share := Share{
		ID:        id,
		FileID:    rel,
		CreatedAt: now,
		ExpiresAt: now.Add(s.shareTTL),
	}
	user.Shares = append(user.Shares, share)

	if err := s.saveUser(user); err != nil {
		return nil, err
	}

	s.shareMu.Lock()
	s.shares[share.ID] = shareRef{userID: userID, fileID: rel}
	s.shareMu.Unlock()

	logger.Info("share created", "user_id", userID, "file_id", rel, "expires_at", share.ExpiresAt)
	return &share, nil
}

// DeleteShare removes any share link for the given file. It is a no-op if
// none exists.
func (s *Service) DeleteShare(userID, fileID string) error {
	rel, err := s.validRelPath(fileID)
	if err != nil {
		return err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}

	kept := user.Shares[:0]
	removed := 0
	for _, share := range user.Shares {
		if share.FileID == rel {
			s.shareMu.Lock()
			delete(s.shares, share.ID)
			s.shareMu.Unlock()
			removed++
			continue
		}
		kept = append(kept, share)
	}
	if removed == 0 {
		return nil
	}

	user.Shares = kept
	if err := s.saveUser(user); err != nil {
		return err
	}

	logger.Info("share deleted", "user_id", userID, "file_id", rel)
	return nil
}

// ResolveShare maps a share link identifier to its owner and file.
// Expired links resolve as not found even before the sweep removes them.
func (s *Service) ResolveShare(shareID string) (userID, fileID string, err error) {
	s.shareMu.RLock()
	ref, ok := s.shares[shareID]
	s.shareMu.RUnlock()
	if !ok {
		return "", "", notFoundf("share %s", shareID)
	}

	user, err := s.loadUser(ref.userID)
	if err != nil {
		return "", "", notFoundf("share %s", shareID)
	}

	now := time.Now()
	for _, share := range user.Shares {
		if share.ID != shareID {
			continue
		}
		if share.Expired(now) {
			return "", "", notFoundf("share %s", shareID)
		}
		return ref.userID, share.FileID, nil
	}
	return "", "", notFoundf("share %s", shareID)
}

// OpenShared resolves a share link and opens the target file. This is the
// single entry point for unauthenticated public downloads.
func (s *Service) OpenShared(shareID string) (io.ReadCloser, *FileEntry, error) {
	userID, fileID, err := s.ResolveShare(shareID)
	if err != nil {
		return nil, nil, err
	}
	return s.Open(userID, fileID)
}

// CleanupExpiredShares removes every expired share record across all
// users. Called from a periodic sweep; returns the number removed.
func (s *Service) CleanupExpiredShares() (int, error) {
	ids, err := s.userIDs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, userID := range ids {
		removed, err := s.sweepUserShares(userID)
		if err != nil {
			logger.Warn("share sweep failed for user", "user_id", userID, "error", err)
			continue
		}
		total += removed
	}

	if total > 0 {
		logger.Info("expired shares swept", "removed", total)
	}
	return total, nil
}

func (s *Service) sweepUserShares(userID string) (int, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	kept := user.Shares[:0]
	removed := 0
	for _, share := range user.Shares {
		if share.Expired(now) {
			s.shareMu.Lock()
			delete(s.shares, share.ID)
			s.shareMu.Unlock()
			removed++
			continue
		}
		kept = append(kept, share)
	}
	if removed == 0 {
		return 0, nil
	}

	user.Shares = kept
	return removed, s.saveUser(user)
}

// randomID returns n bytes from a cryptographically secure source,
// encoded as URL-safe base64 without padding.
func randomID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
