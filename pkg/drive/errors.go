package drive

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected, recoverable outcomes. Callers distinguish
// them with errors.Is; anything else is an internal I/O failure.
var (
	// ErrNotFound indicates a file, folder, trash item or share link
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the target path is already occupied.
	ErrConflict = errors.New("already exists")

	// ErrUserNotFound indicates no record exists for the user ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a malformed filename or path. No filesystem
// mutation is attempted when one is returned.
type ValidationError struct {
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// QuotaExceededError reports a rejected write that would push the user
// past their quota. All counts are in bytes.
type QuotaExceededError struct {
	Used     int64
	Incoming int64
	Quota    int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %d used + %d incoming > %d quota",
		e.Used, e.Incoming, e.Quota)
}

// notFoundf wraps ErrNotFound with context.
func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// conflictf wraps ErrConflict with context.
func conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
