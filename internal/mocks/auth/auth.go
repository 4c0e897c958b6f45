package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	"github.com/campusware/campus-ui-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider   = (*MockAuthProvider)(nil)
	_ ports.SessionStore   = (*MemorySessionStore)(nil)
	_ ports.TokenRefresher = (*FakeRefresher)(nil)
	_ ports.Sweeper        = (*CountingSweeper)(nil)
	_ ports.RoleMapper     = (*StaticRoleMapper)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL         string
	StatePrefix     string
	NoncePrefix     string
	DefaultIdentity domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultIdentity: domainauth.Identity{
			Subject:      "mock-user-1",
			TenantID:     "mock-tenant",
			TenantTier:   "standard",
			RoleValue:    "teacher",
			RefreshToken: "mock-refresh-token",
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default identity with a fresh token pair
	id := m.DefaultIdentity
	id.Tokens = domainauth.TokenSet{
		AccessToken: "mock-access",
		IDToken:     "mock-id",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	return id, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ErrNotFound is returned by mocks when an entity is not present.
type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var ErrNotFound error = notFoundError{}

// FakeRefresher is a scriptable TokenRefresher. By default every call mints
// a fresh token pair with the configured TTL and the call count baked into
// the token values.
type FakeRefresher struct {
	RefreshFunc func(ctx context.Context, refreshToken string) (domainauth.TokenSet, error)
	TokenTTL    time.Duration
	Now         func() time.Time

	mu    sync.Mutex
	calls int
}

func (f *FakeRefresher) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, refreshToken)
	}

	ttl := f.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return domainauth.TokenSet{
		AccessToken: fmt.Sprintf("access-%d", n),
		IDToken:     fmt.Sprintf("id-%d", n),
		ExpiresAt:   now().Add(ttl),
	}, nil
}

// Calls reports how many times Refresh was invoked.
func (f *FakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// CountingSweeper records sweep calls and optionally fails them.
type CountingSweeper struct {
	Err error

	mu    sync.Mutex
	swept []string
}

func (c *CountingSweeper) Sweep(_ context.Context, sessionID string) error {
	c.mu.Lock()
	c.swept = append(c.swept, sessionID)
	c.mu.Unlock()
	return c.Err
}

// Swept returns the session IDs swept so far.
func (c *CountingSweeper) Swept() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.swept...)
}

// StaticRoleMapper maps role claims by exact string match.
type StaticRoleMapper struct {
	AdminRole string
	StaffRole string
}

func (m StaticRoleMapper) Map(roleClaim string) domainauth.Role {
	switch roleClaim {
	case m.AdminRole:
		return domainauth.RoleAdmin
	case m.StaffRole:
		return domainauth.RoleStaff
	default:
		return domainauth.RoleGuest
	}
}
