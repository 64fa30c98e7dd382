package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// loadUser reads a user's metadata record. Returns ErrUserNotFound when no
// record exists on disk.
func (s *Service) loadUser(userID string) (*User, error) {
	data, err := os.ReadFile(filepath.Join(s.userRoot(userID), metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
		}
		return nil, err
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("corrupt metadata for user %s: %w", userID, err)
	}
	return &user, nil
}

// saveUser persists a user's metadata record atomically: the record is
// written to a temporary file in the same directory and renamed into
// place, so concurrent readers never observe a torn write.
func (s *Service) saveUser(user *User) error {
	root := s.userRoot(user.ID)
	if err := os.MkdirAll(root, s.dirMode); err != nil {
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}

	target := filepath.Join(root, metadataFile)
	tmp, err := os.CreateTemp(root, metadataFile+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, s.fileMode); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
