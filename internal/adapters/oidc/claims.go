package oidc

import (
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/campusware/campus-ui-api/internal/errors"
)

// ClaimMapper extracts tenant context from ID-token claims using configurable
// JMESPath expressions. Paths are validated at construction so a bad
// expression fails at startup, not on the first sign-in.
type ClaimMapper struct {
	tenantIDPath   string
	tenantTierPath string
	rolePath       string
}

// ClaimMapperConfig holds the claim paths. Empty paths are invalid.
type ClaimMapperConfig struct {
	TenantIDPath   string
	TenantTierPath string
	RolePath       string
}

// NewClaimMapper validates and stores the configured claim paths.
func NewClaimMapper(cfg ClaimMapperConfig) (*ClaimMapper, error) {
	for _, p := range []struct{ name, expr string }{
		{"tenant ID", cfg.TenantIDPath},
		{"tenant tier", cfg.TenantTierPath},
		{"role", cfg.RolePath},
	} {
		if p.expr == "" {
			return nil, fmt.Errorf("%s claim path is required", p.name)
		}
		if _, err := jmespath.Compile(p.expr); err != nil {
			return nil, fmt.Errorf("compile %s claim path %q: %w", p.name, p.expr, err)
		}
	}

	return &ClaimMapper{
		tenantIDPath:   cfg.TenantIDPath,
		tenantTierPath: cfg.TenantTierPath,
		rolePath:       cfg.RolePath,
	}, nil
}

// TenantClaims is the tenant context extracted from ID-token claims at
// sign-in. These values are copied into the session record verbatim and
// never re-derived afterwards.
type TenantClaims struct {
	TenantID   string
	TenantTier string
	Role       string
}

// Extract evaluates the claim paths against the decoded ID-token claims.
// A missing or empty tenant ID is a hard failure: every resource in the app
// is tenant-scoped, and a session without a tenant cannot be authorized for
// anything. Tier and role degrade to empty strings.
func (m *ClaimMapper) Extract(claims map[string]any) (TenantClaims, error) {
	tenantID := searchString(m.tenantIDPath, claims)
	if tenantID == "" {
		return TenantClaims{}, apperrors.Unauthorized("profile is missing a tenant claim")
	}

	return TenantClaims{
		TenantID:   tenantID,
		TenantTier: searchString(m.tenantTierPath, claims),
		Role:       searchString(m.rolePath, claims),
	}, nil
}

// searchString evaluates an expression and coerces the result to a string.
// Non-string and error results collapse to "".
func searchString(expr string, data map[string]any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
