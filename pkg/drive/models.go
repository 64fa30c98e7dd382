package drive

import "time"

// User is the persisted per-user record: identity, quota and the set of
// active share links. One record per user, stored as user.json under the
// user's root.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Admin        bool      `json:"admin,omitempty"`
	// MustChangePassword is set on administrative resets and cleared when
	// the user picks a new password themselves.
	MustChangePassword bool `json:"must_change_password,omitempty"`
	QuotaBytes   int64     `json:"quota_bytes"`
	CreatedAt    time.Time `json:"created_at"`
	Shares       []Share   `json:"shares,omitempty"`
}

// Share binds an unguessable public identifier to a file in the owner's
// active tree. FileID is the file's relative path; it is rewritten when
// the file moves and the record is dropped when the file is trashed.
type Share struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the share is past its expiry at the given time.
func (sh Share) Expired(now time.Time) bool {
	return !now.Before(sh.ExpiresAt)
}

// FileEntry describes a file in a listing. Entries are derived from the
// filesystem on every call and never persisted.
type FileEntry struct {
	// ID is the file's relative path within its tree, using forward
	// slashes. It doubles as the file's identity for all operations.
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Size           int64      `json:"size"`
	ModifiedAt     time.Time  `json:"modified_at"`
	Shared         bool       `json:"shared"`
	ShareExpiresAt *time.Time `json:"share_expires_at,omitempty"`
}

// Usage reports a user's storage consumption against their quota.
type Usage struct {
	UsedBytes  int64 `json:"used_bytes"`
	TrashBytes int64 `json:"trash_bytes"`
	QuotaBytes int64 `json:"quota_bytes"`
}
