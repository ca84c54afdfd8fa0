package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/invitation"
	"github.com/praxishq/praxis/internal/domain"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

// InvitationsHandler handles invitation creation, cancellation and listing.
type InvitationsHandler struct {
	lifecycle *invitation.Lifecycle
	scope     *authz.ScopeFilter
}

// NewInvitationsHandler creates a handler for invitation endpoints.
func NewInvitationsHandler(lifecycle *invitation.Lifecycle, scope *authz.ScopeFilter) *InvitationsHandler {
	return &InvitationsHandler{lifecycle: lifecycle, scope: scope}
}

// InvitationResponse is the JSON shape for an invitation.
type InvitationResponse struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Status         string `json:"status"`
	InvitedBy      string `json:"invited_by"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func invitationResponse(inv *domain.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:             inv.ID.String(),
		OrganizationID: inv.OrganizationID.String(),
		Email:          inv.Email,
		Role:           inv.Role.String(),
		Status:         inv.Status.String(),
		InvitedBy:      inv.InvitedBy.String(),
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      inv.UpdatedAt.Format(time.RFC3339),
	}
}

// Create issues a pending invitation into an organization.
func (h *InvitationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	var body struct {
		OrganizationID string `json:"organization_id"`
		Email          string `json:"email"`
		Role           string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if body.Email == "" {
		writeErr(w, http.StatusBadRequest, "", "email required")
		return
	}
	orgID, err := uuid.Parse(body.OrganizationID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid organization_id")
		return
	}
	role, err := domain.ParseRole(body.Role)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid role")
		return
	}
	inv, err := h.lifecycle.Create(r.Context(), identity, domain.NewOrganizationID(orgID), body.Email, role)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invitationResponse(inv))
}

// Cancel moves a pending invitation to cancelled. Cancelling a non-pending
// invitation returns success without changing anything.
func (h *InvitationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid invitation id")
		return
	}
	if err := h.lifecycle.Cancel(r.Context(), identity, domain.NewInvitationID(id)); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// ListPending returns the pending invitations of one organization. The
// organization must be inside the actor's scope; invitee emails and proposed
// roles never cross tenant boundaries.
func (h *InvitationsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	rawID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid organization id")
		return
	}
	orgID := domain.NewOrganizationID(rawID)
	visibleIDs, err := h.scope.AccessibleOrganizationIDs(r.Context(), identity)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	visible := false
	for _, id := range visibleIDs {
		if id == orgID {
			visible = true
			break
		}
	}
	if !visible {
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, "organization outside scope")
		return
	}
	invs, err := h.lifecycle.ListPending(r.Context(), orgID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	items := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		items = append(items, invitationResponse(inv))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": items})
}
