package tokencache

// Package tokencache holds minted bearer tokens in memory for a short window
// so repeated calls within one page load don't each pay a refresh round trip.

import (
	"context"
	"sync"
	"time"
)

const defaultBuffer = 60 * time.Second

type entry struct {
	token string

	// cutoff is the real expiry minus the buffer; it bounds how long the
	// entry may be served. expiresAt is the token's real expiry, reported
	// back to callers so the wire contract can carry it.
	cutoff    time.Time
	expiresAt time.Time
}

// Cache is a per-session, in-memory bearer token cache. Entries expire a
// configurable buffer before the real token expiry so a cached token is
// never handed out when it would expire mid-flight.
//
// The cache is process-local on purpose: persisting tokens anywhere outside
// memory is forbidden, and losing the cache on restart only costs one
// refresh per active session.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	buffer  time.Duration
	now     func() time.Time
}

// Config holds configuration for the token cache.
type Config struct {
	// Buffer is subtracted from the real token expiry. Defaults to 60s.
	Buffer time.Duration
	Now    func() time.Time
}

// New creates a token cache.
func New(cfg Config) *Cache {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]entry),
		buffer:  buffer,
		now:     now,
	}
}

// Get returns the cached token and its real expiry for a session, if present
// and still inside the buffered validity window. Stale entries are removed on
// access.
func (c *Cache) Get(sessionID string) (string, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sessionID]
	if !ok {
		return "", time.Time{}, false
	}
	if !c.now().Before(e.cutoff) {
		delete(c.entries, sessionID)
		return "", time.Time{}, false
	}
	return e.token, e.expiresAt, true
}

// Put caches a token for a session until expiresAt minus the buffer. Tokens
// already inside the buffer window are not cached at all.
func (c *Cache) Put(sessionID, token string, expiresAt time.Time) {
	if sessionID == "" || token == "" {
		return
	}
	cutoff := expiresAt.Add(-c.buffer)
	if !c.now().Before(cutoff) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = entry{token: token, cutoff: cutoff, expiresAt: expiresAt}
}

// Invalidate drops the cached token for a session.
func (c *Cache) Invalidate(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}

// Sweep implements ports.Sweeper so logout can purge the cache alongside the
// session's server-side scratch keys.
func (c *Cache) Sweep(_ context.Context, sessionID string) error {
	c.Invalidate(sessionID)
	return nil
}

// Len reports the number of live entries. Used by tests and debug endpoints.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
