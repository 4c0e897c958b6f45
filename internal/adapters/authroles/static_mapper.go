package authroles

// Package authroles maps raw IdP role claims onto application roles using
// configured allow-lists.

import (
	"strings"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
)

// StaticRoleMapper maps role-claim values to roles via two configured lists.
// Anything not listed falls through to guest; an unknown role never grants
// access by accident.
type StaticRoleMapper struct {
	admin map[string]struct{}
	staff map[string]struct{}
}

// NewStaticRoleMapper builds a mapper from the configured role lists.
// Matching is case-insensitive; IdP admins are not consistent about casing.
func NewStaticRoleMapper(adminRoles, staffRoles []string) *StaticRoleMapper {
	return &StaticRoleMapper{
		admin: toSet(adminRoles),
		staff: toSet(staffRoles),
	}
}

// Map returns the application role for a raw role claim.
func (m *StaticRoleMapper) Map(roleClaim string) domainauth.Role {
	key := strings.ToLower(strings.TrimSpace(roleClaim))
	if _, ok := m.admin[key]; ok {
		return domainauth.RoleAdmin
	}
	if _, ok := m.staff[key]; ok {
		return domainauth.RoleStaff
	}
	return domainauth.RoleGuest
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
