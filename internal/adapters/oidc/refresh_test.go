package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/campusware/campus-ui-api/internal/errors"
)

type staticResolver struct {
	tokenURL string
	authzURL string
	err      error
}

func (s staticResolver) TokenEndpoint(context.Context) (string, error) {
	return s.tokenURL, s.err
}

func (s staticResolver) AuthorizationEndpoint(context.Context) (string, error) {
	return s.authzURL, s.err
}

func TestRefreshSendsRequiredForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		_, _ = w.Write([]byte(`{"access_token":"at-1","id_token":"idt-1","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{tokenURL: srv.URL},
		ClientID:  "campus",
		Now:       func() time.Time { return fixed },
	})
	require.NoError(t, err)

	ts, err := client.Refresh(context.Background(), "refresh-abc")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", got.Get("grant_type"))
	assert.Equal(t, "campus", got.Get("client_id"))
	assert.Equal(t, "refresh-abc", got.Get("refresh_token"))
	assert.Equal(t, "openid profile email", got.Get("scope"),
		"scope must ride along on every refresh or the IdP drops the ID token")

	assert.Equal(t, "at-1", ts.AccessToken)
	assert.Equal(t, "idt-1", ts.IDToken)
	assert.Equal(t, fixed.Add(time.Hour), ts.ExpiresAt)
	assert.Equal(t, "idt-1", ts.Bearer())
}

func TestRefreshIgnoresRotatedRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// The IdP echoing a refresh_token back must not change the
		// credential the session keeps.
		_, _ = w.Write([]byte(`{"access_token":"at-2","expires_in":900,"refresh_token":"rotated-should-be-ignored"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{tokenURL: srv.URL},
		ClientID:  "campus",
	})
	require.NoError(t, err)

	ts, err := client.Refresh(context.Background(), "original-token")
	require.NoError(t, err)
	assert.Equal(t, "at-2", ts.AccessToken)
	assert.Equal(t, "at-2", ts.Bearer(), "no ID token in response falls back to access token")
}

func TestRefreshInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh token has been revoked"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{tokenURL: srv.URL},
		ClientID:  "campus",
	})
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "revoked-token")
	require.Error(t, err)
	assert.True(t, apperrors.IsRefresh(err))
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "revoked")
}

func TestRefreshEmptyToken(t *testing.T) {
	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{tokenURL: "https://idp.example.com/token"},
		ClientID:  "campus",
	})
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsMissingRefreshToken(err))
}

func TestRefreshDiscoveryFailurePropagates(t *testing.T) {
	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{err: apperrors.Discovery("idp unreachable")},
		ClientID:  "campus",
	})
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "refresh-abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsDiscovery(err))
}

func TestRefreshTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery:  staticResolver{tokenURL: srv.URL},
		ClientID:   "campus",
		HTTPClient: &http.Client{Timeout: 50 * time.Millisecond},
	})
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "refresh-abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
}

func TestRefreshMalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"at-3"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewRefreshClient(RefreshClientConfig{
		Discovery: staticResolver{tokenURL: srv.URL},
		ClientID:  "campus",
	})
	require.NoError(t, err)

	_, err = client.Refresh(context.Background(), "refresh-abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsRefresh(err))
	assert.Contains(t, err.Error(), "expires_in")
}
