package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndValidate(t *testing.T) {
	s := NewStore()

	token, err := s.Create("u1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(token), 64, "token carries at least 384 bits of entropy")

	userID, ok := s.Validate(token)
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)

	_, ok = s.Validate("unknown")
	assert.False(t, ok)
}

func TestTokensAreUnique(t *testing.T) {
	s := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := s.Create("u1")
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()

	token, err := s.Create("u1")
	require.NoError(t, err)

	s.Remove(token)
	_, ok := s.Validate(token)
	assert.False(t, ok)

	s.Remove(token) // no-op
}

func TestSweepIdle(t *testing.T) {
	s := NewStore()

	stale, err := s.Create("u1")
	require.NoError(t, err)
	fresh, err := s.Create("u2")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	require.True(t, s.Touch(fresh))

	removed := s.SweepIdle(20 * time.Millisecond)
	assert.Equal(t, 1, removed)

	_, ok := s.Validate(stale)
	assert.False(t, ok)
	_, ok = s.Validate(fresh)
	assert.True(t, ok, "a touched token survives the sweep")
}

func TestTouchUnknown(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Touch("nope"))
}

func TestRegister(t *testing.T) {
	s := NewStore()

	s.Register("external-token", "u9")
	userID, ok := s.Validate("external-token")
	assert.True(t, ok)
	assert.Equal(t, "u9", userID)
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				token, err := s.Create("u1")
				if err != nil {
					t.Error(err)
					return
				}
				s.Touch(token)
				s.Validate(token)
				s.Remove(token)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			s.SweepIdle(time.Hour)
		}
	}()

	wg.Wait()
	<-done
	assert.Equal(t, 0, s.Len())
}
