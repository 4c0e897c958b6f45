package oidc

// Package oidc provides OIDC/OAuth adapters for the campus auth system:
// the discovery cache, the refresh-grant client, and the login provider.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"golang.org/x/sync/singleflight"
)

// defaultIdPTimeout bounds outbound IdP calls when no client is supplied.
const defaultIdPTimeout = 10 * time.Second

// Document is the subset of the OIDC discovery document the broker needs.
type Document struct {
	TokenEndpoint         string `json:"token_endpoint"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
}

// DiscoveryCache fetches the well-known configuration once and memoizes it
// for the life of the process. It is an explicit, injectable object: construct
// it at process start and pass it by reference. Concurrent first calls share a
// single network fetch; a failed fetch is retried by the next call.
//
// There is no TTL and no invalidation: the document changes only on IdP
// infrastructure migration, and each instance discovering independently is an
// accepted staleness trade-off.
type DiscoveryCache struct {
	wellKnownURL string
	httpClient   *http.Client

	mu    sync.RWMutex
	doc   *Document
	group singleflight.Group
}

// DiscoveryCacheConfig holds configuration for the discovery cache.
type DiscoveryCacheConfig struct {
	WellKnownURL string
	HTTPClient   *http.Client // Optional, defaults to a 10s-timeout client
}

// NewDiscoveryCache creates a new discovery cache.
func NewDiscoveryCache(cfg DiscoveryCacheConfig) (*DiscoveryCache, error) {
	if cfg.WellKnownURL == "" {
		return nil, errors.New("well-known URL is required")
	}
	if _, err := url.Parse(cfg.WellKnownURL); err != nil {
		return nil, fmt.Errorf("parse well-known URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultIdPTimeout}
	}

	return &DiscoveryCache{
		wellKnownURL: cfg.WellKnownURL,
		httpClient:   httpClient,
	}, nil
}

// Document returns the cached discovery document, fetching it on first use.
func (c *DiscoveryCache) Document(ctx context.Context) (Document, error) {
	c.mu.RLock()
	doc := c.doc
	c.mu.RUnlock()
	if doc != nil {
		return *doc, nil
	}

	v, err, _ := c.group.Do("discovery", func() (any, error) {
		// Re-check under the group: a concurrent caller may have filled
		// the cache between the RLock and Do.
		c.mu.RLock()
		cached := c.doc
		c.mu.RUnlock()
		if cached != nil {
			return *cached, nil
		}

		fetched, fetchErr := c.fetch(ctx)
		if fetchErr != nil {
			return Document{}, fetchErr
		}

		c.mu.Lock()
		c.doc = &fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return Document{}, err
	}

	result, ok := v.(Document)
	if !ok {
		return Document{}, apperrors.Internal("unexpected discovery cache value")
	}
	return result, nil
}

// TokenEndpoint returns the IdP's token endpoint.
func (c *DiscoveryCache) TokenEndpoint(ctx context.Context) (string, error) {
	doc, err := c.Document(ctx)
	if err != nil {
		return "", err
	}
	return doc.TokenEndpoint, nil
}

// AuthorizationEndpoint returns the IdP's authorization endpoint.
func (c *DiscoveryCache) AuthorizationEndpoint(ctx context.Context) (string, error) {
	doc, err := c.Document(ctx)
	if err != nil {
		return "", err
	}
	return doc.AuthorizationEndpoint, nil
}

func (c *DiscoveryCache) fetch(ctx context.Context) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.wellKnownURL, nil)
	if err != nil {
		return Document{}, apperrors.Wrap(err, apperrors.ErrCodeDiscovery, "build discovery request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, mapTransportErr(err, apperrors.ErrCodeDiscovery, "fetch discovery document")
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, apperrors.Discovery(
			fmt.Sprintf("discovery endpoint returned status %d", resp.StatusCode))
	}

	var doc Document
	if decodeErr := json.NewDecoder(resp.Body).Decode(&doc); decodeErr != nil {
		return Document{}, apperrors.Wrap(decodeErr, apperrors.ErrCodeDiscovery, "decode discovery document")
	}
	if doc.TokenEndpoint == "" {
		return Document{}, apperrors.Discovery("discovery document missing token_endpoint")
	}
	if doc.AuthorizationEndpoint == "" {
		return Document{}, apperrors.Discovery("discovery document missing authorization_endpoint")
	}
	return doc, nil
}

// mapTransportErr distinguishes timeouts from other transport failures so
// callers see a timeout error instead of a hung or generic failure.
func mapTransportErr(err error, code apperrors.ErrorCode, msg string) error {
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, msg+": identity provider timed out")
	}
	return apperrors.Wrap(err, code, msg)
}
