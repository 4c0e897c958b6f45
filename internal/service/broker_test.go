package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	mockauth "github.com/campusware/campus-ui-api/internal/mocks/auth"
	"github.com/campusware/campus-ui-api/internal/testutil"
	"github.com/campusware/campus-ui-api/internal/tokencache"
)

type brokerFixture struct {
	broker    *TokenBroker
	store     *mockauth.MemorySessionStore
	refresher *mockauth.FakeRefresher
	clock     *testClock
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBrokerFixture(t *testing.T) *brokerFixture {
	t.Helper()
	clock := &testClock{now: testutil.TestTime()}
	store := mockauth.NewMemorySessionStore()
	refresher := &mockauth.FakeRefresher{TokenTTL: time.Hour, Now: clock.Now}

	sessions := newSessionService(store, refresher, clock.Now)
	broker := NewTokenBroker(TokenBrokerOptions{
		Sessions: sessions,
		Cache:    tokencache.New(tokencache.Config{Buffer: time.Minute, Now: clock.Now}),
	})

	seedSession(t, store, domainauth.Session{
		ID:                 "sess-1",
		Subject:            "user-1",
		RefreshToken:       "refresh-original",
		AccessTokenExpires: clock.Now().Add(time.Hour).UnixMilli(),
		TenantID:           "district-42",
		ExpiresAt:          clock.Now().Add(24 * time.Hour),
	})

	return &brokerFixture{broker: broker, store: store, refresher: refresher, clock: clock}
}

func TestTokenForCallPrimedCacheHit(t *testing.T) {
	f := newBrokerFixture(t)

	// Sign-in primes the cache; calls shortly after hit it.
	f.broker.Prime("sess-1", domainauth.TokenSet{
		AccessToken: "at-login",
		IDToken:     "idt-login",
		ExpiresAt:   f.clock.Now().Add(time.Hour),
	})

	expiry := f.clock.Now().Add(time.Hour)
	f.clock.Advance(time.Second)
	tok, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "idt-login", tok.Value)
	assert.Equal(t, expiry, tok.ExpiresAt, "a cache hit still reports the real token expiry")
	assert.Equal(t, 0, f.refresher.Calls(), "a valid cached token needs no refresh")

	// Immediately asking again changes nothing.
	tok2, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, tok.Value, tok2.Value)
	assert.Equal(t, tok.ExpiresAt, tok2.ExpiresAt)
	assert.Equal(t, 0, f.refresher.Calls())
}

func TestTokenForCallRefreshesAfterExpiry(t *testing.T) {
	f := newBrokerFixture(t)
	f.broker.Prime("sess-1", domainauth.TokenSet{
		IDToken:   "idt-login",
		ExpiresAt: f.clock.Now().Add(time.Hour),
	})

	f.clock.Advance(2 * time.Hour)

	tok, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", tok.Value, "first minted pair from the refresher")
	assert.Equal(t, 1, f.refresher.Calls())

	stored, err := f.store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(time.Hour).UnixMilli(), stored.AccessTokenExpires)
	assert.Equal(t, "refresh-original", stored.RefreshToken)

	// The minted token is now cached; a follow-up call does not refresh and
	// reports the same expiry.
	tok2, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.refresher.Calls())
	assert.Equal(t, tok.ExpiresAt, tok2.ExpiresAt)
	assert.False(t, tok2.ExpiresAt.IsZero())
}

func TestTokenForCallRefreshRejectionBecomesUnauthorized(t *testing.T) {
	f := newBrokerFixture(t)
	f.refresher.RefreshFunc = func(context.Context, string) (domainauth.TokenSet, error) {
		return domainauth.TokenSet{}, apperrors.Refresh("invalid_grant")
	}

	_, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.True(t, apperrors.IsRefresh(err), "original cause stays discoverable")

	// Sticky failure: the second call fails locally without another attempt.
	_, err = f.broker.TokenForCall(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 1, f.refresher.Calls())
}

func TestTokenForCallDiscoveryErrorPassesThrough(t *testing.T) {
	f := newBrokerFixture(t)
	f.refresher.RefreshFunc = func(context.Context, string) (domainauth.TokenSet, error) {
		return domainauth.TokenSet{}, apperrors.Discovery("idp unreachable")
	}

	_, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsDiscovery(err))
	assert.False(t, apperrors.IsUnauthorized(err), "infrastructure failure is not a credential failure")
}

func TestTokenForCallConcurrentMissesShareOneRefresh(t *testing.T) {
	f := newBrokerFixture(t)

	release := make(chan struct{})
	f.refresher.RefreshFunc = func(context.Context, string) (domainauth.TokenSet, error) {
		<-release
		return domainauth.TokenSet{IDToken: "idt-shared", ExpiresAt: f.clock.Now().Add(time.Hour)}, nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make([]Token, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.broker.TokenForCall(context.Background(), "sess-1")
		}(i)
	}

	// Let the in-flight callers pile up behind the first refresh.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "idt-shared", results[i].Value)
	}
	assert.Equal(t, 1, f.refresher.Calls(), "concurrent misses must collapse into one refresh")
}

func TestTokenForCallNoSession(t *testing.T) {
	f := newBrokerFixture(t)

	_, err := f.broker.TokenForCall(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = f.broker.TokenForCall(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestInvalidateDropsCachedToken(t *testing.T) {
	f := newBrokerFixture(t)
	f.broker.Prime("sess-1", domainauth.TokenSet{IDToken: "idt", ExpiresAt: f.clock.Now().Add(time.Hour)})

	f.broker.Invalidate("sess-1")

	_, err := f.broker.TokenForCall(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.refresher.Calls(), "cache miss after invalidation forces a refresh")
}
