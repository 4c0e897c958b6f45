package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"github.com/campusware/campus-ui-api/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Provider   ports.AuthProvider
	Sessions   ports.SessionStore
	Refresher  ports.TokenRefresher
	Roles      ports.RoleMapper
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// SessionService owns the session lifecycle: sign-in, lookup, refresh, and
// invalidation. All token-expiry bookkeeping goes through here; handlers and
// the token broker never touch the store directly.
type SessionService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	refresher  ports.TokenRefresher
	roles      ports.RoleMapper
	sessionTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger

	// locks serializes refresh attempts per session so concurrent callers
	// cannot race the read-check-refresh-write cycle against each other.
	// Entries are refcounted and evicted once the last holder releases, so
	// session churn doesn't grow the map over the process lifetime.
	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 720 * time.Hour
	}
	return &SessionService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		refresher:  opts.Refresher,
		roles:      opts.Roles,
		sessionTTL: ttl,
		now:        now,
		logger:     logger,
		locks:      make(map[string]*sessionLock),
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *SessionService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the new session and the initial token set.
// The tokens are returned so the caller can prime the token cache; they are
// never written to the store.
type CompleteLoginResult struct {
	Session domainauth.Session
	Tokens  domainauth.TokenSet
}

// CompleteLogin completes an authentication flow: exchanges the code for an
// identity, maps the role claim, and persists a fresh session record. A new
// sign-in always produces a clean record; any prior refresh failure is gone.
func (s *SessionService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	now := s.now()
	session := domainauth.Session{
		ID:                 generateSessionID(),
		Subject:            identity.Subject,
		RefreshToken:       identity.RefreshToken,
		AccessTokenExpires: identity.Tokens.ExpiresAt.UnixMilli(),
		TenantID:           identity.TenantID,
		TenantTier:         identity.TenantTier,
		UserRole:           s.roles.Map(identity.RoleValue),
		ExpiresAt:          now.Add(s.sessionTTL),
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"tenant_id", session.TenantID,
		"role", session.UserRole)

	return &CompleteLoginResult{
		Session: session,
		Tokens:  identity.Tokens,
	}, nil
}

// Get retrieves a session by ID.
func (s *SessionService) Get(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, apperrors.Unauthorized("no session")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "get session")
	}
	return session, nil
}

// EnsureFresh atomically checks the session state and refreshes when needed,
// returning the session and a token set that is valid right now. Holding the
// per-session lock across the check and the write means two concurrent calls
// cannot both decide to refresh; the second sees the first one's result.
//
// A session already flagged RefreshFailed is rejected without calling the
// IdP: the flag is sticky and only a new sign-in clears it.
func (s *SessionService) EnsureFresh(ctx context.Context, sessionID string) (domainauth.Session, domainauth.TokenSet, error) {
	lock := s.acquireLock(sessionID)
	defer s.releaseLock(sessionID, lock)

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return domainauth.Session{}, domainauth.TokenSet{}, err
	}

	switch session.State(s.now()) {
	case domainauth.StateUnauthenticated:
		return domainauth.Session{}, domainauth.TokenSet{}, apperrors.Unauthorized("session has no subject")
	case domainauth.StateRefreshFailed:
		return domainauth.Session{}, domainauth.TokenSet{},
			apperrors.Unauthorized("previous refresh failed, sign in again")
	}

	// Valid or Expired: both paths refresh. The session record never holds
	// tokens, so even a Valid session needs the IdP to mint a pair when the
	// caller's cache came up empty.
	if !session.CanRefresh() {
		return domainauth.Session{}, domainauth.TokenSet{},
			apperrors.Wrap(
				apperrors.MissingRefreshToken("session has no refresh token"),
				apperrors.ErrCodeUnauthorized, "cannot refresh")
	}

	tokens, err := s.refresher.Refresh(ctx, session.RefreshToken)
	if err != nil {
		// Only an IdP rejection flags the session. Transport failures
		// (timeout, discovery outage, cancellation) leave the record
		// untouched; the credential may still be good and the next call
		// retries cleanly.
		if apperrors.IsRefresh(err) {
			if markErr := s.sessions.Save(ctx, session.WithRefreshFailed()); markErr != nil {
				s.logger.Error("mark refresh failed", "session_id", session.ID, "error", markErr)
			}
		}
		return domainauth.Session{}, domainauth.TokenSet{}, err
	}

	refreshed := session.WithRefreshed(tokens.ExpiresAt.UnixMilli())
	if saveErr := s.sessions.Save(ctx, refreshed); saveErr != nil {
		return domainauth.Session{}, domainauth.TokenSet{}, fmt.Errorf("save refreshed session: %w", saveErr)
	}

	return refreshed, tokens, nil
}

// Invalidate removes a session record.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to invalidate
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// acquireLock blocks until the caller holds the per-session mutex. The entry
// is refcounted so releaseLock can evict it once nobody is waiting.
func (s *SessionService) acquireLock(sessionID string) *sessionLock {
	s.locksMu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		s.locks[sessionID] = lock
	}
	lock.refs++
	s.locksMu.Unlock()

	lock.mu.Lock()
	return lock
}

func (s *SessionService) releaseLock(sessionID string, lock *sessionLock) {
	lock.mu.Unlock()

	s.locksMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.locksMu.Unlock()
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	return uuid.New().String()
}
