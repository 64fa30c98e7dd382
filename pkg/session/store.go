// Package session holds ephemeral login tokens in memory. Tokens map an
// opaque string to a user ID and are evicted by inactivity, not by a
// fixed TTL: a continuously used token never expires. Nothing here
// survives a process restart.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/cumulo-cloud/cumulo/internal/logger"
)

// tokenBytes sets token entropy. 48 random bytes give 384 bits, rendered
// as 64 URL-safe characters.
const tokenBytes = 48

type entry struct {
	userID     string
	lastActive time.Time
}

// Store is an in-memory token store, safe for concurrent use by request
// handlers and the idle-eviction sweep.
type Store struct {
	mu     sync.RWMutex
	tokens map[string]*entry
}

// NewStore creates an empty token store.
func NewStore() *Store {
	return &Store{tokens: make(map[string]*entry)}
}

// Create mints a fresh token for userID and records the current time as
// its last activity.
func (s *Store) Create(userID string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	s.tokens[token] = &entry{userID: userID, lastActive: time.Now()}
	s.mu.Unlock()

	return token, nil
}

// Register records a caller-supplied token (for example a refresh token
// issued elsewhere) under the given user.
func (s *Store) Register(token, userID string) {
	s.mu.Lock()
	s.tokens[token] = &entry{userID: userID, lastActive: time.Now()}
	s.mu.Unlock()
}

// Validate returns the user ID bound to a token. It is a pure lookup and
// does not refresh activity; pair it with Touch on authenticated use.
func (s *Store) Validate(token string) (string, bool) {
	s.mu.RLock()
	e, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	return e.userID, true
}

// Touch refreshes a token's last-activity timestamp. Returns false if the
// token is unknown.
func (s *Store) Touch(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[token]
	if !ok {
		return false
	}
	e.lastActive = time.Now()
	return true
}

// Remove deletes a token. Removing an unknown token is a no-op.
func (s *Store) Remove(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// SweepIdle evicts every token whose last activity is older than the
// threshold and returns the number removed.
func (s *Store) SweepIdle(threshold time.Duration) int {
	cutoff := time.Now().Add(-threshold)

	s.mu.Lock()
	removed := 0
	for token, e := range s.tokens {
		if e.lastActive.Before(cutoff) {
			delete(s.tokens, token)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		logger.Debug("idle sessions evicted", "removed", removed)
	}
	return removed
}

// Len returns the number of live tokens.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
