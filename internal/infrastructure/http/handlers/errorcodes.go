package handlers

// API error codes returned in JSON { "error": "...", "code": "..." } for stable client handling.
const (
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInvalidRole      = "invalid_role_for_organization"
	ErrCodeTargetIneligible = "target_ineligible"
	ErrCodeScopeUnavailable = "scope_unavailable"
	ErrCodeInternal         = "internal_error"
)
