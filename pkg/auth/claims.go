package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the staff member or service calling the collections API.
type Claims struct {
	jwt.RegisteredClaims
	StaffID  string   `json:"staff_id"`
	TenantID string   `json:"tenant_id"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the claims carry role. Admins hold every role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role) || slices.Contains(c.Roles, RoleAdmin)
}

// HasAnyRole reports whether the claims carry at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Roles
const (
	RoleAdmin        = "admin"
	RoleCollector    = "collector"
	RoleSupervisor   = "supervisor"
	RoleLegalOfficer = "legal_officer"
	RoleFinance      = "finance"
	RoleAuditor      = "auditor"
	// RoleService is held by schedulers and peer services.
	RoleService = "service"
)
