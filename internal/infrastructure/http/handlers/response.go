package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

// writeErr sends JSON { "error": message, "code": errCode }. If errCode is
// empty, a default is derived from the HTTP status.
func writeErr(w http.ResponseWriter, status int, errCode, message string) {
	if errCode == "" {
		errCode = defaultErrCode(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": errCode})
}

func defaultErrCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeConflict
	default:
		return ErrCodeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainErr maps core sentinel errors to HTTP responses. Unrecognized
// errors surface as 500 without leaking internals.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domerrors.ErrUnauthorized):
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, domerrors.ErrUnauthorized.Error())
	case errors.Is(err, domerrors.ErrInvalidRoleForOrganization):
		writeErr(w, http.StatusUnprocessableEntity, ErrCodeInvalidRole, domerrors.ErrInvalidRoleForOrganization.Error())
	case errors.Is(err, domerrors.ErrConflictingSession):
		writeErr(w, http.StatusConflict, ErrCodeConflict, domerrors.ErrConflictingSession.Error())
	case errors.Is(err, domerrors.ErrTargetIneligible):
		writeErr(w, http.StatusUnprocessableEntity, ErrCodeTargetIneligible, domerrors.ErrTargetIneligible.Error())
	case errors.Is(err, domerrors.ErrScopeUnavailable):
		writeErr(w, http.StatusServiceUnavailable, ErrCodeScopeUnavailable, domerrors.ErrScopeUnavailable.Error())
	case errors.Is(err, domerrors.ErrUserNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, domerrors.ErrUserNotFound.Error())
	case errors.Is(err, domerrors.ErrOrganizationNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, domerrors.ErrOrganizationNotFound.Error())
	case errors.Is(err, domerrors.ErrInvitationNotFound):
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, domerrors.ErrInvitationNotFound.Error())
	case errors.Is(err, domerrors.ErrUserExists):
		writeErr(w, http.StatusConflict, ErrCodeConflict, domerrors.ErrUserExists.Error())
	case errors.Is(err, domerrors.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, ErrCodeUnauthorized, domerrors.ErrInvalidCredentials.Error())
	default:
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
