package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleGuest Role = "guest"
)

// SessionError marks a session that needs a fresh sign-in to recover.
type SessionError string

// SessionErrRefreshFailed is set when a refresh-grant attempt fails. It is
// sticky: only a new sign-in clears it.
const SessionErrRefreshFailed SessionError = "RefreshFailed"

// State classifies a session record at a point in time.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateValid           State = "valid"
	StateExpired         State = "expired"
	StateRefreshFailed   State = "refresh_failed"
)

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
//
// The record must never contain an access token or ID token; those are
// minted on demand and live only for the duration of a call or a short
// cache TTL. Its serialized form stays small by construction (a handful of
// short claims), well under cookie-chunking thresholds.
type Session struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`

	// RefreshToken is the IdP's non-rotating refresh credential. It is
	// byte-identical across every successful refresh; only sign-in or
	// IdP-side revocation replaces it.
	RefreshToken string `json:"refresh_token"`

	// AccessTokenExpires is the epoch-millisecond instant at which the most
	// recently issued access/ID token pair expires.
	AccessTokenExpires int64 `json:"access_token_expires"`

	// Tenant claims copied verbatim from the IdP profile at sign-in.
	// They are never re-derived from a token payload after sign-in.
	TenantID   string `json:"tenant_id"`
	TenantTier string `json:"tenant_tier"`
	UserRole   Role   `json:"user_role"`

	// Error is set when a refresh attempt fails and stays set until a new
	// sign-in replaces the record.
	Error SessionError `json:"error,omitempty"`

	// ExpiresAt is the absolute session lifetime used as the store TTL.
	ExpiresAt time.Time `json:"expires_at"`
}

// State reports the session's lifecycle state at the given instant.
func (s Session) State(now time.Time) State {
	switch {
	case s.Subject == "":
		return StateUnauthenticated
	case s.Error == SessionErrRefreshFailed:
		return StateRefreshFailed
	case now.UnixMilli() < s.AccessTokenExpires:
		return StateValid
	default:
		return StateExpired
	}
}

// CanRefresh reports whether the record carries a credential to refresh with.
// An expired session without one is terminal and requires re-authentication.
func (s Session) CanRefresh() bool { return s.RefreshToken != "" }

// WithRefreshed returns a copy of the session after a successful refresh:
// new token expiry, error cleared, everything else (the refresh token
// included) untouched.
func (s Session) WithRefreshed(accessTokenExpires int64) Session {
	s.AccessTokenExpires = accessTokenExpires
	s.Error = ""
	return s
}

// WithRefreshFailed returns a copy of the session flagged with the sticky
// refresh failure.
func (s Session) WithRefreshFailed() Session {
	s.Error = SessionErrRefreshFailed
	return s
}

// TokenSet is an ephemeral access/ID token pair. It must never be persisted:
// instances live on the call stack server-side, or in the short-TTL token
// cache keyed by session.
type TokenSet struct {
	AccessToken string
	IDToken     string
	ExpiresAt   time.Time
}

// Bearer returns the token to attach to an authenticated downstream call.
// The ID token wins when present: this IdP family embeds the custom tenant
// claims there, and they may be absent from the access token depending on
// client configuration.
func (t TokenSet) Bearer() string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject      string
	TenantID     string
	TenantTier   string
	RoleValue    string // raw role claim, mapped to a Role at sign-in
	RefreshToken string
	Tokens       TokenSet
}
