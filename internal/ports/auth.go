package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the
	// authenticated identity including the refresh credential and the initial token set.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// DiscoveryResolver resolves IdP endpoints from the OIDC well-known document.
// Implementations cache the document for the life of the process.
type DiscoveryResolver interface {
	TokenEndpoint(ctx context.Context) (string, error)
	AuthorizationEndpoint(ctx context.Context) (string, error)
}

// TokenRefresher exchanges a refresh token for a fresh access/ID token pair.
// The returned token set is ephemeral and must never be persisted.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper removes per-session auxiliary state (cached tokens, scratch keys)
// during logout. Implementations are best-effort: one bad key must not abort
// the sweep.
type Sweeper interface {
	Sweep(ctx context.Context, sessionID string) error
}

// RoleMapper maps the raw role claim from the IdP to an application role.
type RoleMapper interface {
	Map(roleClaim string) domainauth.Role
}
