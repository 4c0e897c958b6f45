package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"github.com/campusware/campus-ui-api/internal/service"
	"github.com/campusware/campus-ui-api/internal/testutil"
)

// fakeSessions is a minimal SessionServiceInterface double for handler tests.
type fakeSessions struct {
	beginResult    *service.BeginLoginResult
	beginErr       error
	completeResult *service.CompleteLoginResult
	completeErr    error
	sessions       map[string]domainauth.Session
}

func (f *fakeSessions) BeginLogin(context.Context, string) (*service.BeginLoginResult, error) {
	return f.beginResult, f.beginErr
}

func (f *fakeSessions) CompleteLogin(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	return f.completeResult, f.completeErr
}

func (f *fakeSessions) Get(_ context.Context, id string) (domainauth.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return domainauth.Session{}, apperrors.Unauthorized("no session")
	}
	return sess, nil
}

// fakeBroker is a TokenBrokerInterface double.
type fakeBroker struct {
	token  service.Token
	err    error
	primed map[string]domainauth.TokenSet
}

func (f *fakeBroker) TokenForCall(context.Context, string) (service.Token, error) {
	return f.token, f.err
}

func (f *fakeBroker) Prime(sessionID string, tokens domainauth.TokenSet) {
	if f.primed == nil {
		f.primed = make(map[string]domainauth.TokenSet)
	}
	f.primed[sessionID] = tokens
}

// fakeLogout is a LogoutInterface double.
type fakeLogout struct {
	target string
	calls  []string
}

func (f *fakeLogout) Logout(_ context.Context, sessionID string) string {
	f.calls = append(f.calls, sessionID)
	return f.target
}

func validSession(now time.Time) domainauth.Session {
	return domainauth.Session{
		ID:                 "sess-1",
		Subject:            "user-1",
		RefreshToken:       "refresh-abc",
		AccessTokenExpires: now.Add(time.Hour).UnixMilli(),
		TenantID:           "district-42",
		TenantTier:         "standard",
		UserRole:           domainauth.RoleStaff,
		ExpiresAt:          now.Add(24 * time.Hour),
	}
}

func TestLoginRedirectsToIdP(t *testing.T) {
	h := &AuthHandlers{
		Sessions: &fakeSessions{
			beginResult: &service.BeginLoginResult{
				AuthURL: "https://idp.example.com/authorize?client_id=campus",
				State:   "state-1",
				Nonce:   "nonce-1",
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/authorize?client_id=campus", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	byName := map[string]*http.Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "oauth_state")
	require.Contains(t, byName, "oauth_nonce")
	require.Contains(t, byName, "post_login_redirect")
	assert.Equal(t, "state-1", byName["oauth_state"].Value)
	assert.Equal(t, "/dashboard", byName["post_login_redirect"].Value)
	assert.True(t, byName["oauth_state"].HttpOnly)
}

func TestLoginRejectsAbsoluteRedirect(t *testing.T) {
	h := &AuthHandlers{
		Sessions: &fakeSessions{
			beginResult: &service.BeginLoginResult{AuthURL: "https://idp/authorize", State: "s", Nonce: "n"},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com/", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "post_login_redirect" {
			assert.Equal(t, "/", c.Value, "absolute URLs collapse to root")
		}
	}
}

func TestCallbackSetsSessionAndPrimesCache(t *testing.T) {
	now := testutil.TestTime()
	sess := validSession(now)
	tokens := domainauth.TokenSet{IDToken: "idt-login", ExpiresAt: now.Add(time.Hour)}
	broker := &fakeBroker{}
	h := &AuthHandlers{
		Sessions: &fakeSessions{
			completeResult: &service.CompleteLoginResult{Session: sess, Tokens: tokens},
		},
		Broker: broker,
		Now:    testutil.FixedTimeFunc(now),
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "nonce-1"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/dashboard"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "session cookie must be set")
	assert.Equal(t, "sess-1", sessionCookie.Value)

	assert.Equal(t, tokens, broker.primed["sess-1"], "sign-in tokens prime the cache")
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	h := &AuthHandlers{Sessions: &fakeSessions{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=state-evil", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_state", body["error"])
}

func TestCallbackRequiresCode(t *testing.T) {
	h := &AuthHandlers{Sessions: &fakeSessions{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1", nil)
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRedirectsToHostedLogout(t *testing.T) {
	logout := &fakeLogout{target: "https://idp.example.com/logout?client_id=campus"}
	h := &AuthHandlers{Sessions: &fakeSessions{}, LogoutSvc: logout}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/logout?client_id=campus", rec.Header().Get("Location"))
	assert.Equal(t, []string{"sess-1"}, logout.calls)

	// Session cookie is cleared.
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestLogoutAJAXReturnsJSON(t *testing.T) {
	logout := &fakeLogout{target: "https://idp.example.com/logout"}
	h := &AuthHandlers{Sessions: &fakeSessions{}, LogoutSvc: logout}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://idp.example.com/logout", body["redirect_to"])
}

func TestStatusReportsSessionState(t *testing.T) {
	now := testutil.TestTime()
	h := &AuthHandlers{
		Sessions: &fakeSessions{sessions: map[string]domainauth.Session{"sess-1": validSession(now)}},
		Now:      testutil.FixedTimeFunc(now),
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, string(domainauth.StateValid), body["state"])
}

func TestStatusWithoutCookie(t *testing.T) {
	h := &AuthHandlers{Sessions: &fakeSessions{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["authenticated"])
}

func TestTokenEndpoint(t *testing.T) {
	now := testutil.TestTime()
	h := &AuthHandlers{
		Broker: &fakeBroker{token: service.Token{Value: "idt-1", ExpiresAt: now.Add(time.Hour)}},
		Now:    testutil.FixedTimeFunc(now),
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/id-token", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Token(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idt-1", body["idToken"])
	assert.Equal(t, float64(3600), body["expiresIn"])
}

func TestTokenEndpointMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"refresh rejected", apperrors.Wrap(apperrors.Refresh("invalid_grant"), apperrors.ErrCodeUnauthorized, "re-auth"), http.StatusUnauthorized, "reauthentication_required"},
		{"discovery down", apperrors.Discovery("idp unreachable"), http.StatusBadGateway, "idp_unavailable"},
		{"idp timeout", apperrors.Timeout("timed out"), http.StatusGatewayTimeout, "idp_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandlers{Broker: &fakeBroker{err: tt.err}}

			req := httptest.NewRequest(http.MethodGet, "/auth/id-token", nil)
			req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
			rec := httptest.NewRecorder()
			h.Token(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestTokenEndpointWithoutSession(t *testing.T) {
	h := &AuthHandlers{Broker: &fakeBroker{}}

	req := httptest.NewRequest(http.MethodGet, "/auth/id-token", nil)
	rec := httptest.NewRecorder()
	h.Token(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
