package authz

import "github.com/praxishq/praxis/internal/domain"

// The permission rules are closed tables keyed on the actor's role, first match
// wins. They are deliberately not derived from hierarchy levels: the
// client_admin peer-edit/no-peer-ban asymmetry and the single-role
// impersonation grant are policy exceptions a monotone comparison cannot
// express, so every rule is spelled out and tested explicitly.

// CanView reports whether actor may view a user holding target's role.
func CanView(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleSystemAdmin, domain.RolePlatformAdmin:
		return true
	case domain.RoleClientAdmin:
		return target.IsClientFamily()
	}
	return false
}

// CanEdit reports whether actor may edit a user holding target's role.
// client_admin may edit peers; banning peers is a separate, stricter rule.
func CanEdit(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleSystemAdmin:
		return true
	case domain.RolePlatformAdmin:
		return target != domain.RoleSystemAdmin
	case domain.RoleClientAdmin:
		return target.IsClientFamily()
	}
	return false
}

// CanBan reports whether actor may ban a user holding target's role. No role
// may ban a system_admin, including another system_admin.
func CanBan(actor, target domain.Role) bool {
	switch actor {
	case domain.RoleSystemAdmin:
		return target != domain.RoleSystemAdmin
	case domain.RolePlatformAdmin:
		return target != domain.RoleSystemAdmin
	case domain.RoleClientAdmin:
		// Strictly-lower client roles only; other client_admins are off limits.
		return target.IsClientFamily() && target != domain.RoleClientAdmin
	}
	return false
}

// CanImpersonate reports whether actor may impersonate a user holding target's
// role. Impersonation is the most privileged action in the system: only
// system_admin may do it, and never against another system_admin.
func CanImpersonate(actor, target domain.Role) bool {
	return actor == domain.RoleSystemAdmin && target != domain.RoleSystemAdmin
}

// CanCreateRole reports whether actor may create a user holding targetRole.
// Creation is an admin-family capability regardless of tenant.
func CanCreateRole(actor, targetRole domain.Role) bool {
	switch actor {
	case domain.RoleSystemAdmin:
		return true
	case domain.RolePlatformAdmin:
		return targetRole != domain.RoleSystemAdmin
	}
	return false
}

// CanAssignToOrganization reports whether actor may assign users or invitations
// into an organization of the given type.
func CanAssignToOrganization(actor domain.Role, orgType domain.OrganizationType) bool {
	switch actor {
	case domain.RoleSystemAdmin, domain.RolePlatformAdmin:
		return orgType == domain.OrganizationTypeAdmin || orgType == domain.OrganizationTypeClient
	}
	return false
}
