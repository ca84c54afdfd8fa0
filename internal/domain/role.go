package domain

import "fmt"

// Role is the closed set of roles a membership can carry. Roles are partitioned
// into two disjoint families: admin-organization roles (platform operators) and
// client-organization roles (tenant staff). Construct via ParseRole so invalid
// values never enter the domain.
type Role string

const (
	// Admin-family roles, highest authority first.
	RoleSystemAdmin   Role = "system_admin"
	RolePlatformAdmin Role = "platform_admin"
	RolePlatformAgent Role = "platform_agent"

	// Client-family roles. FrontDesk outranks the two practitioner roles,
	// which are peers at the same level.
	RoleClientAdmin        Role = "client_admin"
	RoleFrontDesk          Role = "front_desk"
	RoleTechnician         Role = "technician"
	RoleInterpretingDoctor Role = "interpreting_doctor"
)

// hierarchyLevels orders roles within a family; higher means more authority.
// Levels are only meaningful for same-family comparisons — cross-family
// decisions go through the permission tables, never through these numbers.
var hierarchyLevels = map[Role]int{
	RoleSystemAdmin:        100,
	RolePlatformAdmin:      90,
	RolePlatformAgent:      80,
	RoleClientAdmin:        50,
	RoleFrontDesk:          40,
	RoleTechnician:         30,
	RoleInterpretingDoctor: 30,
}

// ParseRole validates a raw string against the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := hierarchyLevels[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// IsAdminFamily reports whether the role belongs to the platform-operator family.
func (r Role) IsAdminFamily() bool {
	switch r {
	case RoleSystemAdmin, RolePlatformAdmin, RolePlatformAgent:
		return true
	}
	return false
}

// IsClientFamily reports whether the role is scoped to a single tenant organization.
func (r Role) IsClientFamily() bool {
	switch r {
	case RoleClientAdmin, RoleFrontDesk, RoleTechnician, RoleInterpretingDoctor:
		return true
	}
	return false
}

// HierarchyLevel returns the role's authority level. Comparable only within a family.
func (r Role) HierarchyLevel() int { return hierarchyLevels[r] }

// AdminRoles returns the admin-family roles in descending authority order.
func AdminRoles() []Role {
	return []Role{RoleSystemAdmin, RolePlatformAdmin, RolePlatformAgent}
}

// ClientRoles returns the client-family roles in descending authority order.
func ClientRoles() []Role {
	return []Role{RoleClientAdmin, RoleFrontDesk, RoleTechnician, RoleInterpretingDoctor}
}

// AllRoles returns every role in the catalog.
func AllRoles() []Role {
	return append(AdminRoles(), ClientRoles()...)
}

// ValidRolesFor returns the roles assignable within an organization of the given
// type. Admin roles only in admin organizations, client roles only in client ones.
func ValidRolesFor(orgType OrganizationType) []Role {
	switch orgType {
	case OrganizationTypeAdmin:
		return AdminRoles()
	case OrganizationTypeClient:
		return ClientRoles()
	}
	return nil
}

// RoleAssignableTo reports whether role may be assigned inside an organization
// of the given type.
func RoleAssignableTo(role Role, orgType OrganizationType) bool {
	switch orgType {
	case OrganizationTypeAdmin:
		return role.IsAdminFamily()
	case OrganizationTypeClient:
		return role.IsClientFamily()
	}
	return false
}
