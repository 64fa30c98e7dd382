package drive

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// Upload streams content into the user's active tree under destFolder,
// creating the folder if absent. The declared size is checked against the
// quota before any byte is written; the actual byte count is enforced while
// streaming, so a missing or understated declaration (chunked uploads carry
// none) cannot slip past the limit — the partial file is removed and the
// quota error reports what was really received. A name collision is
// resolved by appending " (n)" before the extension; the file is created
// with O_CREATE|O_EXCL so two racing uploads of the same name can never
// clobber each other.
func (s *Service) Upload(userID string, content io.Reader, declaredSize int64, filename, destFolder string) (*FileEntry, error) {
	if err := ValidateName(filename); err != nil {
		return nil, err
	}
	filename = strings.TrimSpace(filename)

	folder, err := s.validRelPath(destFolder)
	if err != nil {
		return nil, err
	}
	if declaredSize < 0 {
		declaredSize = 0
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}
	headroom, used, err := s.quotaHeadroom(user)
	if err != nil {
		return nil, err
	}
	if headroom >= 0 && declaredSize > headroom {
		return nil, &QuotaExceededError{Used: used, Incoming: declaredSize, Quota: user.QuotaBytes}
	}

	destAbs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(folder))
	if err := os.MkdirAll(destAbs, s.dirMode); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return nil, conflictf("folder %s", folder)
		}
		return nil, err
	}

	name := filename
	var f *os.File
	for n := 1; ; n++ {
		f, err = os.OpenFile(filepath.Join(destAbs, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.fileMode)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		name = suffixedName(filename, n)
	}

	src := content
	if headroom >= 0 {
		// One byte past the headroom is enough to detect an overrun.
		src = io.LimitReader(content, headroom+1)
	}

	written, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	if headroom >= 0 && written > headroom {
		os.Remove(f.Name())
		return nil, &QuotaExceededError{Used: used, Incoming: written, Quota: user.QuotaBytes}
	}

	id := path.Join(folder, name)
	logger.Debug("file uploaded", "user_id", userID, "file_id", id, "bytes", written)

	return &FileEntry{
		ID:         id,
		Name:       name,
		Size:       written,
		ModifiedAt: time.Now(),
	}, nil
}

// Open returns a reader over a file in the user's active tree, along with
// its current metadata. The caller must close the reader.
func (s *Service) Open(userID, fileID string) (io.ReadCloser, *FileEntry, error) {
	rel, err := s.validRelPath(fileID)
	if err != nil {
		return nil, nil, err
	}

	abs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil, notFoundf("file %s", rel)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, err
	}

	return f, &FileEntry{
		ID:         rel,
		Name:       info.Name(),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// List walks the user's active tree and returns every regular file,
// annotated with share state where an unexpired share link targets it.
func (s *Service) List(userID string) ([]FileEntry, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}
	return listFiles(s.dataRoot(userID), user.Shares)
}

// CreateDirectory creates a folder (and any missing parents) in the
// user's active tree. An existing item at that path is a conflict.
func (s *Service) CreateDirectory(userID, folderPath string) error {
	rel, err := s.validRelPath(folderPath)
	if err != nil {
		return err
	}
	if rel == "" {
		return &ValidationError{Name: folderPath, Reason: "empty folder path"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	if _, err := s.loadOrCreate(userID); err != nil {
		return err
	}

	abs := filepath.Join(s.dataRoot(userID), filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err == nil {
		return conflictf("folder %s", rel)
	}
	if err := os.MkdirAll(abs, s.dirMode); err != nil {
		// A regular file occupying part of the path is a conflict, not an
		// internal failure.
		if errors.Is(err, syscall.ENOTDIR) {
			return conflictf("folder %s", rel)
		}
		return err
	}
	return nil
}

// ListFolders returns the relative paths of all directories in the user's
// active tree, sorted lexicographically, excluding the root itself.
func (s *Service) ListFolders(userID string) ([]string, error) {
	if _, err := s.loadUser(userID); err != nil {
		return nil, err
	}
	return listDirs(s.dataRoot(userID))
}

// MoveFile moves a file into targetFolder, which must already exist.
// Collisions at the destination are resolved like uploads; any share link
// bound to the file follows it to the new path. Returns the file's new ID.
func (s *Service) MoveFile(userID, fileID, targetFolder string) (string, error) {
	rel, err := s.validRelPath(fileID)
	if err != nil {
		return "", err
	}
	folder, err := s.validRelPath(targetFolder)
	if err != nil {
		return "", err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return "", err
	}

	dataRoot := s.dataRoot(userID)
	srcAbs := filepath.Join(dataRoot, filepath.FromSlash(rel))
	info, err := os.Stat(srcAbs)
	if err != nil || !info.Mode().IsRegular() {
		return "", notFoundf("file %s", rel)
	}

	destDir := filepath.Join(dataRoot, filepath.FromSlash(folder))
	dirInfo, err := os.Stat(destDir)
	if err != nil || !dirInfo.IsDir() {
		return "", notFoundf("folder %s", folder)
	}

	srcFolder := path.Dir(rel)
	if srcFolder == "." {
		srcFolder = ""
	}
	if folder == srcFolder {
		return rel, nil
	}

	base := path.Base(rel)
	name := base
	for n := 1; ; n++ {
		if _, err := os.Lstat(filepath.Join(destDir, name)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		name = suffixedName(base, n)
	}

	newID := path.Join(folder, name)
	if err := os.Rename(srcAbs, filepath.Join(destDir, name)); err != nil {
		return "", err
	}

	// Filesystem mutation is durable; now retarget any share link.
	if s.rewriteShares(user, func(id string) (string, bool) {
		if id == rel {
			return newID, true
		}
		return "", false
	}) {
		if err := s.saveUser(user); err != nil {
			return "", err
		}
	}

	logger.Debug("file moved", "user_id", userID, "from", rel, "to", newID)
	return newID, nil
}

// RenameFile gives a file a new name within its folder. The new name must
// pass validation and must not already be taken at that level. A share
// link bound to the file is rewritten to the new path.
func (s *Service) RenameFile(userID, fileID, newName string) (string, error) {
	rel, err := s.validRelPath(fileID)
	if err != nil {
		return "", err
	}
	if err := ValidateName(newName); err != nil {
		return "", err
	}
	newName = strings.TrimSpace(newName)

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return "", err
	}

	dataRoot := s.dataRoot(userID)
	srcAbs := filepath.Join(dataRoot, filepath.FromSlash(rel))
	info, err := os.Stat(srcAbs)
	if err != nil || !info.Mode().IsRegular() {
		return "", notFoundf("file %s", rel)
	}

	newID := path.Join(path.Dir(rel), newName)
	if newID == rel {
		return rel, nil
	}

	destAbs := filepath.Join(dataRoot, filepath.FromSlash(newID))
	if _, err := os.Lstat(destAbs); err == nil {
		return "", conflictf("file %s", newID)
	}

	if err := os.Rename(srcAbs, destAbs); err != nil {
		return "", err
	}

	if s.rewriteShares(user, func(id string) (string, bool) {
		if id == rel {
			return newID, true
		}
		return "", false
	}) {
		if err := s.saveUser(user); err != nil {
			return "", err
		}
	}

	logger.Debug("file renamed", "user_id", userID, "from", rel, "to", newID)
	return newID, nil
}

// RenameFolder gives a folder a new name within its parent. Every share
// link nested under the old folder path is rewritten to the new prefix.
func (s *Service) RenameFolder(userID, folderPath, newName string) (string, error) {
	rel, err := s.validRelPath(folderPath)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", &ValidationError{Name: folderPath, Reason: "cannot rename the root folder"}
	}
	if err := ValidateName(newName); err != nil {
		return "", err
	}
	newName = strings.TrimSpace(newName)

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return "", err
	}

	dataRoot := s.dataRoot(userID)
	srcAbs := filepath.Join(dataRoot, filepath.FromSlash(rel))
	info, err := os.Stat(srcAbs)
	if err != nil || !info.IsDir() {
		return "", notFoundf("folder %s", rel)
	}

	newID := path.Join(path.Dir(rel), newName)
	if newID == rel {
		return rel, nil
	}

	destAbs := filepath.Join(dataRoot, filepath.FromSlash(newID))
	if _, err := os.Lstat(destAbs); err == nil {
		return "", conflictf("folder %s", newID)
	}

	if err := os.Rename(srcAbs, destAbs); err != nil {
		return "", err
	}

	oldPrefix := rel + "/"
	newPrefix := newID + "/"
	if s.rewriteShares(user, func(id string) (string, bool) {
		if strings.HasPrefix(id, oldPrefix) {
			return newPrefix + strings.TrimPrefix(id, oldPrefix), true
		}
		return "", false
	}) {
		if err := s.saveUser(user); err != nil {
			return "", err
		}
	}

	logger.Debug("folder renamed", "user_id", userID, "from", rel, "to", newID)
	return newID, nil
}

// loadOrCreate returns the user's record, creating a minimal one with the
// default quota on first reference. Caller must hold the user lock.
func (s *Service) loadOrCreate(userID string) (*User, error) {
	user, err := s.loadUser(userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = &User{
		ID:         userID,
		QuotaBytes: s.defaultQuota,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.ensureDirs(userID); err != nil {
		return nil, err
	}
	if err := s.saveUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// validRelPath cleans a caller-supplied relative path and validates each
// component against the filename rules.
func (s *Service) validRelPath(p string) (string, error) {
	rel, err := cleanRelPath(p)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", nil
	}
	for _, component := range strings.Split(rel, "/") {
		if err := ValidateName(component); err != nil {
			return "", err
		}
	}
	return rel, nil
}

// rewriteShares applies rewrite to every share record, updating the
// in-memory index for each hit. Returns true if any record changed.
// Caller must hold the user lock.
func (s *Service) rewriteShares(user *User, rewrite func(fileID string) (string, bool)) bool {
	changed := false
	for i := range user.Shares {
		newID, ok := rewrite(user.Shares[i].FileID)
		if !ok {
			continue
		}
		s.shareMu.Lock()
		s.shares[user.Shares[i].ID] = shareRef{userID: user.ID, fileID: newID}
		s.shareMu.Unlock()
		user.Shares[i].FileID = newID
		changed = true
	}
	return changed
}

// listFiles walks a tree and returns every regular file as a FileEntry,
// joined against unexpired share records, sorted by ID.
func listFiles(root string, shares []Share) ([]FileEntry, error) {
	now := time.Now()
	byFile := make(map[string]Share, len(shares))
	for _, share := range shares {
		if !share.Expired(now) {
			byFile[share.FileID] = share
		}
	}

	var entries []FileEntry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relFS, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(relFS)

		info, err := d.Info()
		if err != nil {
			return err
		}

		entry := FileEntry{
			ID:         rel,
			Name:       d.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		}
		if share, ok := byFile[rel]; ok {
			entry.Shared = true
			expiry := share.ExpiresAt
			entry.ShareExpiresAt = &expiry
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// listDirs walks a tree and returns relative directory paths, sorted,
// excluding the root.
func listDirs(root string) ([]string, error) {
	dirs := []string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() || p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		dirs = append(dirs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(dirs)
	return dirs, nil
}
