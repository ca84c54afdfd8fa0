package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/application/impersonation"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

// ImpersonationHandler handles /impersonation/*. Both start and stop re-issue
// an access token; callers must swap their credentials for the returned token
// so no stale identity survives the transition.
type ImpersonationHandler struct {
	manager      *impersonation.Manager
	tokens       ports.TokenIssuer
	accessExpiry int64
}

// NewImpersonationHandler creates a handler for impersonation endpoints.
// accessExpiry is the issued token lifetime in seconds.
func NewImpersonationHandler(manager *impersonation.Manager, tokens ports.TokenIssuer, accessExpiry int64) *ImpersonationHandler {
	return &ImpersonationHandler{manager: manager, tokens: tokens, accessExpiry: accessExpiry}
}

type identityTokenResponse struct {
	AccessToken    string `json:"access_token"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	ActorID        string `json:"actor_id"`
	Impersonating  bool   `json:"impersonating"`
}

func (h *ImpersonationHandler) tokenResponse(w http.ResponseWriter, status int, identity domain.Identity) {
	token, err := h.tokens.IssueAccessToken(identity, h.accessExpiry)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "token issuance failed")
		return
	}
	writeJSON(w, status, identityTokenResponse{
		AccessToken:    token,
		UserID:         identity.UserID.String(),
		Role:           identity.Role.String(),
		OrganizationID: identity.OrganizationID.String(),
		ActorID:        identity.ActorID.String(),
		Impersonating:  identity.Impersonating(),
	})
}

// Start begins impersonating the requested target and returns an overlay
// token. The actor's identity stays recoverable through stop.
func (h *ImpersonationHandler) Start(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	var body struct {
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	targetID, err := uuid.Parse(body.TargetID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid target_id")
		return
	}
	overlay, err := h.manager.Start(r.Context(), identity, domain.NewUserID(targetID))
	middleware.RecordAuthzDecision("impersonate", err == nil)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	h.tokenResponse(w, http.StatusOK, overlay)
}

// Stop ends the caller's impersonation session and returns a token for the
// restored identity. Stopping while idle still succeeds.
func (h *ImpersonationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	// The real user behind the overlay owns the session.
	restored, err := h.manager.Stop(r.Context(), identity.ActorID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	h.tokenResponse(w, http.StatusOK, restored)
}

// Active reports the caller's current impersonation session, if any.
func (h *ImpersonationHandler) Active(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	session, err := h.manager.Active(r.Context(), identity.ActorID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if session == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":     true,
		"target_id":  session.TargetID.String(),
		"started_at": session.StartedAt.Format(time.RFC3339),
	})
}
