package devauth

// Package devauth provides a simple, config-driven AuthProvider and
// TokenRefresher for local development. No IdP is contacted.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	"github.com/campusware/campus-ui-api/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Subject    string
	TenantID   string
	TenantTier string
	Role       string
	TokenTTL   time.Duration // default 5m when zero
	Now        func() time.Time
}

// Provider implements ports.AuthProvider and ports.TokenRefresher for local
// development. Begin short-circuits the OAuth flow by redirecting back to our
// own callback with locally generated state; Exchange ignores the code and
// returns the configured identity; Refresh mints a fresh fake token pair.
type Provider struct {
	identity domainauth.Identity
	tokenTTL time.Duration
	now      func() time.Time
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.TenantID == "" {
		return nil, errors.New("dev auth: TenantID is required")
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject:      cfg.Subject,
			TenantID:     cfg.TenantID,
			TenantTier:   cfg.TenantTier,
			RoleValue:    cfg.Role,
			RefreshToken: "dev-refresh-token",
		},
		tokenTTL: ttl,
		now:      now,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// Our standard handler expects GET /auth/callback?code=...&state=...
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code/state/nonce (validation handled by
// handler) and returns the dev identity with a fresh token pair.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	id := p.identity
	id.Tokens = p.mint()
	return id, nil
}

// Refresh mints a new fake token pair, mirroring the non-rotation contract:
// the refresh token handed in comes back untouched in the session record.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if refreshToken == "" {
		return domainauth.TokenSet{}, errors.New("dev auth: refresh token is required")
	}
	return p.mint(), nil
}

func (p *Provider) mint() domainauth.TokenSet {
	now := p.now()
	return domainauth.TokenSet{
		AccessToken: fmt.Sprintf("dev-access-%d", now.UnixMilli()),
		IDToken:     fmt.Sprintf("dev-id-%d", now.UnixMilli()),
		ExpiresAt:   now.Add(p.tokenTTL),
	}
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least n base64 URL chars
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		// pad
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
