// Package drive implements the per-user file storage engine: quota-bounded
// active trees, a trash area that preserves relative paths, and expiring
// public share links.
//
// On disk, each user owns a directory under the base path:
//
//	<base>/<userID>/data/     active file tree
//	<base>/<userID>/trash/    soft-deleted files, same relative layout
//	<base>/<userID>/user.json profile, quota and share records
//
// All metadata writes go through an atomic temp-file-plus-rename, and all
// read-modify-write cycles on a user's record are serialized by a per-user
// mutex, so concurrent operations never lose each other's updates.
package drive

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

const (
	dataDirName  = "data"
	trashDirName = "trash"
	metadataFile = "user.json"
)

// Config holds the storage engine configuration.
type Config struct {
	// BasePath is the root directory holding all user trees.
	BasePath string

	// DefaultQuota is the quota assigned to users created without an
	// explicit one. Zero or negative means unlimited.
	DefaultQuota int64

	// ShareTTL is the lifetime of a newly minted share link.
	ShareTTL time.Duration

	// DirMode and FileMode are the permission bits for created
	// directories and files. Defaults: 0755 and 0644.
	DirMode  os.FileMode
	FileMode os.FileMode
}

// shareRef locates the owner and target of a share link.
type shareRef struct {
	userID string
	fileID string
}

// Service is the storage engine. All methods are safe for concurrent use.
type Service struct {
	basePath     string
	defaultQuota int64
	shareTTL     time.Duration
	dirMode      os.FileMode
	fileMode     os.FileMode

	// userLocks serializes metadata read-modify-write and filesystem
	// mutations per user.
	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex

	// shares indexes shareID -> (userID, fileID) so resolution does not
	// scan every user record. Rebuilt from disk at startup.
	shareMu sync.RWMutex
	shares  map[string]shareRef
}

// New creates the storage engine rooted at cfg.BasePath, creating the base
// directory if needed and rebuilding the share index from existing user
// records.
func New(cfg Config) (*Service, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}
	if cfg.ShareTTL <= 0 {
		cfg.ShareTTL = 24 * time.Hour
	}

	if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
		return nil, err
	}

	s := &Service{
		basePath:     cfg.BasePath,
		defaultQuota: cfg.DefaultQuota,
		shareTTL:     cfg.ShareTTL,
		dirMode:      cfg.DirMode,
		fileMode:     cfg.FileMode,
		userLocks:    make(map[string]*sync.Mutex),
		shares:       make(map[string]shareRef),
	}

	if err := s.rebuildShareIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

// rebuildShareIndex scans every user record and registers its share links.
// Expired records are indexed too; resolution checks expiry and the
// periodic sweep removes them.
func (s *Service) rebuildShareIndex() error {
	userIDs, err := s.userIDs()
	if err != nil {
		return err
	}

	count := 0
	for _, id := range userIDs {
		user, err := s.loadUser(id)
		if err != nil {
			logger.Warn("skipping unreadable user record", "user_id", id, "error", err)
			continue
		}
		for _, share := range user.Shares {
			s.shares[share.ID] = shareRef{userID: id, fileID: share.FileID}
			count++
		}
	}

	if count > 0 {
		logger.Info("share index rebuilt", "shares", count, "users", len(userIDs))
	}
	return nil
}

// Ping verifies the storage root is still reachable. Used by readiness
// probes.
func (s *Service) Ping() error {
	_, err := os.Stat(s.basePath)
	return err
}

// userIDs lists the IDs of all users present on disk.
func (s *Service) userIDs() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		// A user directory is one that carries a metadata record.
		if _, err := os.Stat(filepath.Join(s.basePath, e.Name(), metadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// lockUser acquires the per-user mutex, creating it on first use.
// The returned function releases it.
func (s *Service) lockUser(userID string) func() {
	s.lockMu.Lock()
	mu, ok := s.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[userID] = mu
	}
	s.lockMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// userRoot returns the root directory for a user.
func (s *Service) userRoot(userID string) string {
	return filepath.Join(s.basePath, userID)
}

// dataRoot returns the active tree root for a user.
func (s *Service) dataRoot(userID string) string {
	return filepath.Join(s.basePath, userID, dataDirName)
}

// trashRoot returns the trash tree root for a user.
func (s *Service) trashRoot(userID string) string {
	return filepath.Join(s.basePath, userID, trashDirName)
}

// ensureDirs creates the user's data and trash directories idempotently.
func (s *Service) ensureDirs(userID string) error {
	if err := os.MkdirAll(s.dataRoot(userID), s.dirMode); err != nil {
		return err
	}
	return os.MkdirAll(s.trashRoot(userID), s.dirMode)
}
