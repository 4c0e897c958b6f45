package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
//
// Scope must include "openid profile email": the IdP family we target
// withholds the ID token when scope is omitted from the refresh grant,
// which breaks every tenant-aware downstream call.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"campus"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"campus"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// PostLogoutRedirectURL is sent to the IdP's hosted logout endpoint
	// as logout_uri. Defaults to the app base URL when empty.
	PostLogoutRedirectURL string `env:"POST_LOGOUT_REDIRECT_URL"`

	// IdPTimeout bounds every outbound call to the IdP (discovery and
	// token endpoint). A stalled IdP must surface a timeout error, never
	// hang a request indefinitely.
	IdPTimeout time.Duration `env:"IDP_TIMEOUT" envDefault:"10s"`
}

// ClaimsConfig maps IdP profile claims to the tenant context stored in the
// session record. Paths are JMESPath expressions evaluated against the
// ID-token claims at sign-in; claims are sign-in-time facts and are never
// re-read on refresh.
type ClaimsConfig struct {
	TenantIDPath   string `env:"TENANT_ID_PATH"   envDefault:"tenant_id"`
	TenantTierPath string `env:"TENANT_TIER_PATH" envDefault:"tenant_tier"`
	RolePath       string `env:"ROLE_PATH"        envDefault:"role"`
}

// SessionConfig controls the lifetime of the server-side session record and
// the client-facing token cache.
type SessionConfig struct {
	// TTL is the absolute session lifetime. The refresh token stays usable
	// until the IdP revokes it, so this is the only local upper bound.
	TTL time.Duration `env:"TTL" envDefault:"720h"`

	// TokenCacheBuffer is subtracted from the real token expiry before an
	// entry goes into the short-lived token cache, so a cached token is
	// never served when it would expire mid-flight.
	TokenCacheBuffer time.Duration `env:"TOKEN_CACHE_BUFFER" envDefault:"60s"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Subject    string `env:"SUBJECT"     envDefault:"dev-user"`
	TenantID   string `env:"TENANT_ID"   envDefault:"dev-tenant"`
	TenantTier string `env:"TENANT_TIER" envDefault:"standard"`
	Role       string `env:"ROLE"        envDefault:"district-admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Claims mapping configuration.
	Claims ClaimsConfig `envPrefix:"CLAIM_"`

	// Session lifetime configuration.
	Session SessionConfig `envPrefix:"SESSION_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminRoles lists role-claim values that map to the admin role.
	AdminRoles []string `env:"ADMIN_ROLES" envDefault:"district-admin;school-admin" envSeparator:";"`

	// StaffRoles lists role-claim values that map to the staff role.
	StaffRoles []string `env:"STAFF_ROLES" envDefault:"teacher;registrar" envSeparator:";"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.OAuth.IdPTimeout <= 0 {
		a.OAuth.IdPTimeout = 10 * time.Second
	}
	if a.Session.TTL <= 0 {
		a.Session.TTL = 720 * time.Hour
	}
	if a.Session.TokenCacheBuffer < 0 {
		a.Session.TokenCacheBuffer = 60 * time.Second
	}
	// The openid scope is non-negotiable for this IdP family; without it
	// the token endpoint omits the ID token that carries tenant claims.
	if !strings.Contains(" "+a.OAuth.Scope+" ", " openid ") {
		a.OAuth.Scope = strings.TrimSpace("openid " + a.OAuth.Scope)
	}
}
