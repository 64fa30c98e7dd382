package drive

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// UsedBytes sums the sizes of regular files in the user's active tree.
// Computed by full traversal on every call: there is no cached counter,
// so the figure can never drift from the filesystem.
func (s *Service) UsedBytes(userID string) (int64, error) {
	return treeSize(s.dataRoot(userID))
}

// TotalUsedBytes sums the active tree and the trash tree. This is the
// figure checked against the quota before a write is accepted.
func (s *Service) TotalUsedBytes(userID string) (int64, error) {
	active, err := treeSize(s.dataRoot(userID))
	if err != nil {
		return 0, err
	}
	trash, err := treeSize(s.trashRoot(userID))
	if err != nil {
		return 0, err
	}
	return active + trash, nil
}

// GetUsage returns the user's usage alongside their quota.
func (s *Service) GetUsage(userID string) (*Usage, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	active, err := treeSize(s.dataRoot(userID))
	if err != nil {
		return nil, err
	}
	trash, err := treeSize(s.trashRoot(userID))
	if err != nil {
		return nil, err
	}

	return &Usage{
		UsedBytes:  active,
		TrashBytes: trash,
		QuotaBytes: user.QuotaBytes,
	}, nil
}

// quotaHeadroom returns how many more bytes the user may write, counting
// active and trash trees, along with the current usage. A quota of zero
// or less is unlimited, signalled by a negative headroom.
func (s *Service) quotaHeadroom(user *User) (headroom, used int64, err error) {
	if user.QuotaBytes <= 0 {
		return -1, 0, nil
	}

	used, err = s.TotalUsedBytes(user.ID)
	if err != nil {
		return 0, 0, err
	}
	return user.QuotaBytes - used, used, nil
}

// treeSize walks root and sums regular file sizes. A missing root counts
// as zero.
func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
