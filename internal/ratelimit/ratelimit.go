// Package ratelimit provides per-client token bucket rate limiting,
// used to throttle authentication attempts on the HTTP API.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per client key (typically a remote IP).
// Buckets are created lazily on first use and evicted after a period of
// inactivity so the map does not grow without bound.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client

	rps   rate.Limit
	burst int
	ttl   time.Duration
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing rps sustained requests per second per key,
// with the given burst capacity. Buckets idle longer than ttl are dropped
// by Sweep.
func New(rps float64, burst int, ttl time.Duration) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
}

// Allow reports whether the request identified by key may proceed,
// consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = time.Now()
	l.mu.Unlock()

	return c.bucket.Allow()
}

// Sweep evicts buckets that have not been used within the TTL and
// returns the number of entries removed.
func (l *Limiter) Sweep() int {
	cutoff := time.Now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked client buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
