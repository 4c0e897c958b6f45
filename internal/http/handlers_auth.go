package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	"github.com/campusware/campus-ui-api/internal/service"
)

// SessionServiceInterface defines the interface for session lifecycle operations.
type SessionServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Get(ctx context.Context, sessionID string) (domainauth.Session, error)
}

// TokenBrokerInterface defines the interface for minting call tokens.
type TokenBrokerInterface interface {
	TokenForCall(ctx context.Context, sessionID string) (service.Token, error)
	Prime(sessionID string, tokens domainauth.TokenSet)
}

// LogoutInterface defines the interface for session teardown.
type LogoutInterface interface {
	Logout(ctx context.Context, sessionID string) string
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Sessions     SessionServiceInterface
	Broker       TokenBrokerInterface
	LogoutSvc    LogoutInterface
	CookieDomain string
	Now          func() time.Time
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	result, err := h.Sessions.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Store state, nonce, and the original redirect URI in secure cookies
	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	// Redirect to the identity provider
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Verify state and read nonce
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Sessions.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	// Seed the token cache with the sign-in tokens so the first page load
	// doesn't immediately refresh.
	if h.Broker != nil {
		h.Broker.Prime(result.Session.ID, result.Tokens)
	}

	// Set session cookie and clear temporary OAuth cookies
	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	// Redirect to the original destination
	redirectURI := h.getPostLoginRedirect(w, r)
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	target := "/auth/login"
	if sessionCookie, err := r.Cookie(sessionCookieName); err == nil {
		target = h.LogoutSvc.Logout(r.Context(), sessionCookie.Value)
	}

	// Clear session cookie on the client
	h.clearCookie(w, r, sessionCookieName)

	// AJAX requests get a JSON payload; regular requests redirect to the
	// IdP's hosted logout (or the local sign-in fallback).
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
			"state":         domainauth.StateUnauthenticated,
		})
		return
	}

	session, err := h.Sessions.Get(r.Context(), sessionCookie.Value)
	if err != nil {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r, sessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"authenticated": false,
			"state":         domainauth.StateUnauthenticated,
		})
		return
	}

	state := session.State(h.now())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": state == domainauth.StateValid || state == domainauth.StateExpired,
		"state":         state,
		"user": map[string]interface{}{
			"subject":     session.Subject,
			"tenant_id":   session.TenantID,
			"tenant_tier": session.TenantTier,
			"role":        session.UserRole,
		},
		"expires_at": session.ExpiresAt,
	})
}

// Token mints a bearer token for the calling session.
// GET /auth/id-token.
func (h *AuthHandlers) Token(w http.ResponseWriter, r *http.Request) {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "reauthentication_required",
			Err:     errors.New("no session"),
		})
		return
	}

	tok, err := h.Broker.TokenForCall(r.Context(), sessionCookie.Value)
	if err != nil {
		h.logger().WarnContext(r.Context(), "token mint failed", "error", err)
		WriteAppError(w, err)
		return
	}

	resp := map[string]interface{}{"idToken": tok.Value}
	if !tok.ExpiresAt.IsZero() {
		resp["expiresIn"] = int64(tok.ExpiresAt.Sub(h.now()).Seconds())
	}
	WriteJSON(w, http.StatusOK, resp)
}

// getPostLoginRedirect returns the post-login redirect URL and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie(postLoginRedirectKey); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		h.clearCookie(w, r, postLoginRedirectKey)
	}
	return redirectURI
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
