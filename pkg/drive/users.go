package drive

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// CreateUser provisions a new user with a fresh ID, a hashed password and
// empty data and trash trees. The email must not already be in use.
func (s *Service) CreateUser(email, displayName, password string, quotaBytes int64, admin bool) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &ValidationError{Name: email, Reason: "empty email"}
	}
	if password == "" {
		return nil, &ValidationError{Name: email, Reason: "empty password"}
	}

	if existing, err := s.FindByEmail(email); err == nil && existing != nil {
		return nil, conflictf("user with email %s", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if quotaBytes == 0 {
		quotaBytes = s.defaultQuota
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Admin:        admin,
		QuotaBytes:   quotaBytes,
		CreatedAt:    time.Now().UTC(),
	}

	unlock := s.lockUser(user.ID)
	defer unlock()

	if err := s.ensureDirs(user.ID); err != nil {
		return nil, err
	}
	if err := s.saveUser(user); err != nil {
		return nil, err
	}

	logger.Info("user created", "user_id", user.ID, "email", email, "admin", admin)
	return user, nil
}

// EnsureAdminUser guarantees that at least one admin account exists.
//
// If an admin is already present this is a no-op. Otherwise a new admin
// is created: with the given bcrypt hash when one is configured, or
// with a freshly generated random password which is returned exactly
// once so it can be shown to the operator.
func (s *Service) EnsureAdminUser(email, displayName, passwordHash string, quotaBytes int64) (string, error) {
	users, err := s.ListUsers()
	if err != nil {
		return "", err
	}
	for _, user := range users {
		if user.Admin {
			return "", nil
		}
	}

	var generated string
	if passwordHash == "" {
		generated, err = randomID(12)
		if err != nil {
			return "", err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(generated), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		passwordHash = string(hash)
	}

	if quotaBytes == 0 {
		quotaBytes = s.defaultQuota
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Admin:        true,
		// A generated password is only meant to get the operator in once.
		MustChangePassword: generated != "",
		QuotaBytes:         quotaBytes,
		CreatedAt:          time.Now().UTC(),
	}

	unlock := s.lockUser(user.ID)
	defer unlock()

	if err := s.ensureDirs(user.ID); err != nil {
		return "", err
	}
	if err := s.saveUser(user); err != nil {
		return "", err
	}

	logger.Info("admin user created", "user_id", user.ID, "email", user.Email)
	return generated, nil
}

// GetOrCreateUser returns the record for userID, creating a minimal one
// with the given display name and quota if none exists. Used by callers
// that establish identity elsewhere and reference storage lazily.
func (s *Service) GetOrCreateUser(userID, displayName string, quotaBytes int64) (*User, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if quotaBytes == 0 {
		quotaBytes = s.defaultQuota
	}
	user = &User{
		ID:          userID,
		DisplayName: displayName,
		QuotaBytes:  quotaBytes,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.ensureDirs(userID); err != nil {
		return nil, err
	}
	if err := s.saveUser(user); err != nil {
		return nil, err
	}

	logger.Info("user created lazily", "user_id", userID)
	return user, nil
}

// GetUser returns the record for userID.
func (s *Service) GetUser(userID string) (*User, error) {
	return s.loadUser(userID)
}

// FindByEmail scans all user records for a matching email.
func (s *Service) FindByEmail(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	ids, err := s.userIDs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		user, err := s.loadUser(id)
		if err != nil {
			continue
		}
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("email %s: %w", email, ErrUserNotFound)
}

// Authenticate verifies an email/password pair and returns the matching
// user. A wrong password and an unknown email both return
// ErrInvalidCredentials so callers cannot probe for registered emails.
func (s *Service) Authenticate(email, password string) (*User, error) {
	user, err := s.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ListUsers returns all user records sorted by creation time, then email.
func (s *Service) ListUsers() ([]*User, error) {
	ids, err := s.userIDs()
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(ids))
	for _, id := range ids {
		user, err := s.loadUser(id)
		if err != nil {
			logger.Warn("skipping unreadable user record", "user_id", id, "error", err)
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})
	return users, nil
}

// UpdatePassword changes a user's password after verifying the current one.
func (s *Service) UpdatePassword(userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Name: userID, Reason: "empty password"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	return s.saveUser(user)
}

// ResetPassword sets a user's password without verifying the old one and
// flags the account so the next login prompts for a fresh password.
// Reserved for administrative callers.
func (s *Service) ResetPassword(userID, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Name: userID, Reason: "empty password"}
	}

	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	return s.saveUser(user)
}

// UpdateQuota changes a user's quota. Shrinking below current usage is
// allowed; the new limit only gates future writes.
func (s *Service) UpdateQuota(userID string, quotaBytes int64) error {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}
	user.QuotaBytes = quotaBytes
	return s.saveUser(user)
}

// DeleteUser removes a user entirely: record, active tree, trash and any
// share links they own.
func (s *Service) DeleteUser(userID string) error {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}

	s.shareMu.Lock()
	for _, share := range user.Shares {
		delete(s.shares, share.ID)
	}
	s.shareMu.Unlock()

	if err := os.RemoveAll(s.userRoot(userID)); err != nil {
		return err
	}

	logger.Info("user deleted", "user_id", userID, "email", user.Email)
	return nil
}
