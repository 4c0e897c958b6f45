package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachePutGet(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := now
	c := New(Config{Buffer: time.Minute, Now: func() time.Time { return clock }})

	c.Put("sess-1", "token-1", now.Add(time.Hour))

	got, expiresAt, ok := c.Get("sess-1")
	assert.True(t, ok)
	assert.Equal(t, "token-1", got)
	assert.Equal(t, now.Add(time.Hour), expiresAt, "hit reports the real token expiry, not the buffered cutoff")

	_, _, ok = c.Get("sess-2")
	assert.False(t, ok)
}

func TestCacheBufferedExpiry(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	clock := now
	c := New(Config{Buffer: time.Minute, Now: func() time.Time { return clock }})

	// Token valid for 5m; cache entry dies at 4m.
	c.Put("sess-1", "token-1", now.Add(5*time.Minute))

	clock = now.Add(4*time.Minute - time.Millisecond)
	_, expiresAt, ok := c.Get("sess-1")
	assert.True(t, ok)
	assert.Equal(t, now.Add(5*time.Minute), expiresAt)

	clock = now.Add(4 * time.Minute)
	_, _, ok = c.Get("sess-1")
	assert.False(t, ok, "entry must expire a full buffer before the token does")
	assert.Zero(t, c.Len(), "stale entry is removed on access")
}

func TestCacheRejectsNearlyExpiredToken(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c := New(Config{Buffer: time.Minute, Now: func() time.Time { return now }})

	// 30s of life left is inside the 60s buffer; never cached.
	c.Put("sess-1", "token-1", now.Add(30*time.Second))
	_, _, ok := c.Get("sess-1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCacheInvalidateAndSweep(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c := New(Config{Now: func() time.Time { return now }})

	c.Put("sess-1", "token-1", now.Add(time.Hour))
	c.Put("sess-2", "token-2", now.Add(time.Hour))

	c.Invalidate("sess-1")
	_, _, ok := c.Get("sess-1")
	assert.False(t, ok)

	assert.NoError(t, c.Sweep(context.Background(), "sess-2"))
	_, _, ok = c.Get("sess-2")
	assert.False(t, ok)
}

func TestCacheIgnoresEmptyKeys(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c := New(Config{Now: func() time.Time { return now }})

	c.Put("", "token", now.Add(time.Hour))
	c.Put("sess-1", "", now.Add(time.Hour))
	assert.Zero(t, c.Len())
}
