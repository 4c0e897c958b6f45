package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"github.com/campusware/campus-ui-api/internal/tokencache"
)

// TokenBrokerOptions groups dependencies for TokenBroker.
type TokenBrokerOptions struct {
	Sessions *SessionService
	Cache    *tokencache.Cache
	Logger   *slog.Logger
}

// TokenBroker is the single entry point for "give me a token valid right
// now". It consults the short-TTL cache first and falls back to an atomic
// session refresh on a miss. Concurrent misses for the same session collapse
// into one refresh via singleflight.
type TokenBroker struct {
	sessions *SessionService
	cache    *tokencache.Cache
	logger   *slog.Logger
	group    singleflight.Group
}

// NewTokenBroker constructs a new TokenBroker.
func NewTokenBroker(opts TokenBrokerOptions) *TokenBroker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenBroker{
		sessions: opts.Sessions,
		cache:    opts.Cache,
		logger:   logger,
	}
}

// Token is a bearer token plus its real expiry instant.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenForCall returns a bearer token guaranteed valid for an outbound call
// on behalf of the session. Calling it twice in a row on a healthy session is
// idempotent: the second call is a cache hit and no refresh happens.
//
// Refresh-class failures come back as unauthorized so callers uniformly
// redirect to sign-in; discovery and timeout errors pass through untouched
// since they are infrastructure problems, not credential problems.
func (b *TokenBroker) TokenForCall(ctx context.Context, sessionID string) (Token, error) {
	if sessionID == "" {
		return Token{}, apperrors.Unauthorized("no session")
	}

	if tok, expiresAt, ok := b.cache.Get(sessionID); ok {
		return Token{Value: tok, ExpiresAt: expiresAt}, nil
	}

	v, err, _ := b.group.Do(sessionID, func() (any, error) {
		// A concurrent caller may have refreshed and primed the cache
		// while we waited on the group.
		if tok, expiresAt, ok := b.cache.Get(sessionID); ok {
			return Token{Value: tok, ExpiresAt: expiresAt}, nil
		}

		session, tokens, freshErr := b.sessions.EnsureFresh(ctx, sessionID)
		if freshErr != nil {
			return Token{}, b.mapRefreshErr(sessionID, freshErr)
		}

		b.cache.Put(session.ID, tokens.Bearer(), tokens.ExpiresAt)
		return Token{Value: tokens.Bearer(), ExpiresAt: tokens.ExpiresAt}, nil
	})
	if err != nil {
		return Token{}, err
	}

	tok, ok := v.(Token)
	if !ok {
		return Token{}, apperrors.Internal("unexpected token broker value")
	}
	return tok, nil
}

// Prime seeds the cache with the token set minted at sign-in so the first
// page load after the callback doesn't pay an immediate refresh.
func (b *TokenBroker) Prime(sessionID string, tokens domainauth.TokenSet) {
	b.cache.Put(sessionID, tokens.Bearer(), tokens.ExpiresAt)
}

// Invalidate drops any cached token for the session.
func (b *TokenBroker) Invalidate(sessionID string) {
	b.cache.Invalidate(sessionID)
}

func (b *TokenBroker) mapRefreshErr(sessionID string, err error) error {
	switch {
	case apperrors.IsRefresh(err), apperrors.IsMissingRefreshToken(err):
		b.logger.Warn("token refresh rejected", "session_id", sessionID, "error", err)
		return apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "re-authentication required")
	default:
		return err
	}
}
