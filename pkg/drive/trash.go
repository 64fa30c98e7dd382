package drive

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// MoveToTrash soft-deletes an item, preserving its relative path under the
// trash tree so restore is a pure reverse. An item already occupying that
// path in trash is a conflict; trash never performs collision renaming.
// Share links for the item, or anything inside it when it is a folder, are
// removed.
func (s *Service) MoveToTrash(userID, itemPath string) error {
	rel, err := s.validRelPath(itemPath)
	if err != nil {
		return err
	}
	if rel == "" {
		return &ValidationError{Name: itemPath, Reason: "cannot trash the root folder"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}

	srcAbs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(rel))
	info, err := os.Lstat(srcAbs)
	if err != nil {
		return notFoundf("item %s", rel)
	}
	isFolder := info.IsDir()

	destAbs := filepath.Join(s.trashRoot(userID), filepath.FromSlash(rel))
	if _, err := os.Lstat(destAbs); err == nil {
		return conflictf("trash item %s", rel)
	}

	if err := os.MkdirAll(filepath.Dir(destAbs), s.dirMode); err != nil {
		return err
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return err
	}

	// Drop share links referencing the item, or anything nested under it
	// when trashing a folder.
	prefix := rel + "/"
	kept := user.Shares[:0]
	removed := 0
	for _, share := range user.Shares {
		hit := share.FileID == rel || (isFolder && strings.HasPrefix(share.FileID, prefix))
		if hit {
			s.shareMu.Lock()
			delete(s.shares, share.ID)
			s.shareMu.Unlock()
			removed++
			continue
		}
		kept = append(kept, share)
	}
	if removed > 0 {
		user.Shares = kept
		if err := s.saveUser(user); err != nil {
			return err
		}
	}

	logger.Debug("item trashed", "user_id", userID, "item", rel, "folder", isFolder, "shares_removed", removed)
	return nil
}

// ListTrash walks the trash tree and returns every regular file. Trashed
// files are never shared, so entries carry no share state.
func (s *Service) ListTrash(userID string) ([]FileEntry, error) {
	if _, err := s.loadUser(userID); err != nil {
		return nil, err
	}
	return listFiles(s.trashRoot(userID), nil)
}

// ListTrashFolders returns sorted relative directory paths under the
// trash tree, excluding the root.
func (s *Service) ListTrashFolders(userID string) ([]string, error) {
	if _, err := s.loadUser(userID); err != nil {
		return nil, err
	}
	return listDirs(s.trashRoot(userID))
}

// RestoreFromTrash moves a trashed item back to its original place in the
// active tree. The original path must be free; otherwise the restore is a
// conflict. Ancestor directories left empty in trash are pruned afterward.
func (s *Service) RestoreFromTrash(userID, itemID string) error {
	rel, err := s.validRelPath(itemID)
	if err != nil {
		return err
	}
	if rel == "" {
		return &ValidationError{Name: itemID, Reason: "empty item path"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if _, err := s.loadUser(userID); err != nil {
		return err
	}

	trashRoot := s.trashRoot(userID)
	srcAbs := filepath.Join(trashRoot, filepath.FromSlash(rel))
	if _, err := os.Lstat(srcAbs); err != nil {
		return notFoundf("trash item %s", rel)
	}

	destAbs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(rel))
	if _, err := os.Lstat(destAbs); err == nil {
		return conflictf("item %s", rel)
	}

	if err := os.MkdirAll(filepath.Dir(destAbs), s.dirMode); err != nil {
		return err
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return err
	}

	if parent := path.Dir(rel); parent != "." {
		cleanEmptyDirs(trashRoot, filepath.Join(trashRoot, filepath.FromSlash(parent)))
	}

	logger.Debug("item restored", "user_id", userID, "item", rel)
	return nil
}

// DeleteFromTrash permanently removes a single trashed item, recursively
// for folders.
func (s *Service) DeleteFromTrash(userID, itemID string) error {
	rel, err := s.validRelPath(itemID)
	if err != nil {
		return err
	}
	if rel == "" {
		return &ValidationError{Name: itemID, Reason: "empty item path"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if _, err := s.loadUser(userID); err != nil {
		return err
	}

	trashRoot := s.trashRoot(userID)
	abs := filepath.Join(trashRoot, filepath.FromSlash(rel))
	if _, err := os.Lstat(abs); err != nil {
		return notFoundf("trash item %s", rel)
	}

	if err := os.RemoveAll(abs); err != nil {
		return err
	}

	if parent := path.Dir(rel); parent != "." {
		cleanEmptyDirs(trashRoot, filepath.Join(trashRoot, filepath.FromSlash(parent)))
	}

	logger.Debug("trash item purged", "user_id", userID, "item", rel)
	return nil
}

// ClearTrash permanently removes everything in the user's trash tree.
func (s *Service) ClearTrash(userID string) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if _, err := s.loadUser(userID); err != nil {
		return err
	}

	trashRoot := s.trashRoot(userID)
	if err := os.RemoveAll(trashRoot); err != nil {
		return err
	}
	if err := os.MkdirAll(trashRoot, s.dirMode); err != nil {
		return err
	}

	logger.Debug("trash cleared", "user_id", userID)
	return nil
}

// cleanEmptyDirs walks upward from dir toward root, removing each empty
// directory, stopping at the first non-empty one or at root itself.
func cleanEmptyDirs(root, dir string) {
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
