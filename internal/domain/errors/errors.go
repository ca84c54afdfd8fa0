package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	// ErrUnauthorized means a permission check returned false for the attempted
	// action. Never downgraded silently.
	ErrUnauthorized = errors.New("actor is not permitted to perform this action")

	// ErrInvalidRoleForOrganization means a role assignment violates the
	// organization-type affinity invariant. Rejected before any persistence.
	ErrInvalidRoleForOrganization = errors.New("role is not valid for this organization type")

	// ErrConflictingSession means impersonation start was called while the actor
	// already has an active session. The caller must stop the existing one first.
	ErrConflictingSession = errors.New("an impersonation session is already active for this actor")

	// ErrTargetIneligible means the actor's role sufficed but the target
	// disqualifies the action (banned user or a system admin).
	ErrTargetIneligible = errors.New("target is not eligible for this action")

	// ErrScopeUnavailable means the membership store could not be reached, so
	// visibility could not be determined. Distinct from an empty scope, which is
	// a valid result, not an error.
	ErrScopeUnavailable = errors.New("organization scope could not be determined")

	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrUserExists           = errors.New("user already exists with this email")
	ErrInvalidCredentials   = errors.New("invalid email or password")
)
