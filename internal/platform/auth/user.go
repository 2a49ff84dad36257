package auth

import "strings"

// Role is a coach's role within their organisation.
type Role string

const (
	RoleOwner        Role = "OWNER"
	RoleAdmin        Role = "ADMIN"
	RoleNutritionist Role = "NUTRITIONIST"
)

// ParseRole upper-cases and trims s. Unknown values are returned as-is so
// that access checks can fall back to ownership.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleNutritionist:
		return true
	}
	return false
}

// managesTenant reports whether r sees every client of its tenant.
func (r Role) managesTenant() bool {
	return r == RoleOwner || r == RoleAdmin
}

// AuthUser is the authenticated caller, built once per request from a
// verified token.
type AuthUser struct {
	ID       string  `json:"id"`
	Role     Role    `json:"role"`
	TenantID *string `json:"tenantId,omitempty"`
}

// Tenant returns the user's tenant. An empty tenant id counts as no tenant.
func (u AuthUser) Tenant() (string, bool) {
	return tenantOf(u.TenantID)
}

func tenantOf(p *string) (string, bool) {
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}
