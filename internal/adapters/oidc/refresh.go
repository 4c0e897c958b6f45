package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"github.com/campusware/campus-ui-api/internal/ports"
)

// DefaultRefreshScope is the scope every refresh grant must carry. Omitting
// it causes the IdP to withhold the ID token, which silently breaks every
// tenant-aware downstream call. This is a documented requirement of the IdP
// family, not an optimization to strip.
const DefaultRefreshScope = "openid profile email"

// RefreshClient performs the OAuth2 refresh_token grant against the token
// endpoint resolved through the discovery cache.
//
// The IdP family we target does not rotate refresh tokens: the same
// credential is reused until revoked or expired server-side. Any
// refresh_token field in the token response is therefore ignored; callers
// keep the original.
type RefreshClient struct {
	discovery  ports.DiscoveryResolver
	clientID   string
	scope      string
	httpClient *http.Client
	now        func() time.Time
}

// RefreshClientConfig holds configuration for the refresh client.
type RefreshClientConfig struct {
	Discovery  ports.DiscoveryResolver
	ClientID   string
	Scope      string       // defaults to DefaultRefreshScope when empty
	HTTPClient *http.Client // Optional, defaults to a 10s-timeout client
	Now        func() time.Time
}

// NewRefreshClient creates a new refresh-grant client.
func NewRefreshClient(cfg RefreshClientConfig) (*RefreshClient, error) {
	if cfg.Discovery == nil {
		return nil, errors.New("discovery resolver is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	scope := cfg.Scope
	if scope == "" {
		scope = DefaultRefreshScope
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultIdPTimeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &RefreshClient{
		discovery:  cfg.Discovery,
		clientID:   cfg.ClientID,
		scope:      scope,
		httpClient: httpClient,
		now:        now,
	}, nil
}

// tokenResponse is the token endpoint's success payload. The refresh_token
// field is deliberately absent: even when the IdP echoes one back it must be
// ignored in favor of the original.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// tokenErrorResponse is the token endpoint's error payload.
type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh exchanges the refresh token for a fresh token set. The returned
// set exists only in the caller's scope and must never be persisted.
func (c *RefreshClient) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if refreshToken == "" {
		return domainauth.TokenSet{}, apperrors.MissingRefreshToken("no refresh token to exchange")
	}

	endpoint, err := c.discovery.TokenEndpoint(ctx)
	if err != nil {
		return domainauth.TokenSet{}, err
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("refresh_token", refreshToken)
	form.Set("scope", c.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domainauth.TokenSet{}, apperrors.Wrap(err, apperrors.ErrCodeRefresh, "build refresh request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	issuedAt := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.TokenSet{}, mapTransportErr(err, apperrors.ErrCodeRefresh, "call token endpoint")
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domainauth.TokenSet{}, apperrors.Wrap(err, apperrors.ErrCodeRefresh, "read token response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domainauth.TokenSet{}, refreshErrorFromBody(resp.StatusCode, body)
	}

	var tok tokenResponse
	if decodeErr := json.Unmarshal(body, &tok); decodeErr != nil {
		return domainauth.TokenSet{}, apperrors.Wrap(decodeErr, apperrors.ErrCodeRefresh, "decode token response")
	}
	if tok.AccessToken == "" {
		return domainauth.TokenSet{}, apperrors.Refresh("token response missing access_token")
	}
	if tok.ExpiresIn <= 0 {
		return domainauth.TokenSet{}, apperrors.Refresh("token response missing expires_in")
	}

	return domainauth.TokenSet{
		AccessToken: tok.AccessToken,
		IDToken:     tok.IDToken,
		ExpiresAt:   issuedAt.Add(time.Duration(tok.ExpiresIn) * time.Second),
	}, nil
}

// refreshErrorFromBody builds a refresh error from the IdP's error payload,
// falling back to a generic message when the body is not the standard shape.
func refreshErrorFromBody(status int, body []byte) error {
	var errResp tokenErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		msg := errResp.Error
		if errResp.ErrorDescription != "" {
			msg = fmt.Sprintf("%s: %s", errResp.Error, errResp.ErrorDescription)
		}
		return apperrors.Refresh(msg)
	}
	return apperrors.Refresh(fmt.Sprintf("token endpoint returned status %d", status))
}
