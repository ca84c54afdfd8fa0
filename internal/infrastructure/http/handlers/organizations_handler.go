package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

// OrganizationsHandler handles /organizations/*. Reads are scope-filtered;
// writes are restricted to admin-family roles by the router.
type OrganizationsHandler struct {
	orgs  ports.OrganizationRepository
	scope *authz.ScopeFilter
}

// NewOrganizationsHandler creates a handler for organization endpoints.
func NewOrganizationsHandler(orgs ports.OrganizationRepository, scope *authz.ScopeFilter) *OrganizationsHandler {
	return &OrganizationsHandler{orgs: orgs, scope: scope}
}

// OrganizationResponse is the JSON shape for an organization.
type OrganizationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func organizationResponse(o *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Type:      o.Type.String(),
		Active:    o.Active,
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
	}
}

// List returns the organizations visible to the actor. Empty scope yields an
// empty list.
func (h *OrganizationsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	orgs, err := h.scope.AccessibleOrganizations(r.Context(), identity)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	items := make([]OrganizationResponse, 0, len(orgs))
	for _, o := range orgs {
		items = append(items, organizationResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"organizations": items})
}

// Get returns one organization if it is inside the actor's scope.
func (h *OrganizationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, orgID, ok := h.identityAndOrg(w, r)
	if !ok {
		return
	}
	org, visible, err := h.visibleOrg(r, identity, orgID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if org == nil {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "organization not found")
		return
	}
	if !visible {
		writeErr(w, http.StatusForbidden, ErrCodeForbidden, "organization outside scope")
		return
	}
	writeJSON(w, http.StatusOK, organizationResponse(org))
}

// Update renames or activates/deactivates an organization. The router gates
// this route to admin-family roles.
func (h *OrganizationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, orgID, ok := h.identityAndOrg(w, r)
	if !ok {
		return
	}
	var body struct {
		Name   *string `json:"name"`
		Active *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if org == nil {
		writeErr(w, http.StatusNotFound, ErrCodeNotFound, "organization not found")
		return
	}
	if body.Name != nil && *body.Name != "" {
		org.Name = *body.Name
	}
	if body.Active != nil {
		org.Active = *body.Active
	}
	org.UpdatedAt = time.Now().UTC()
	if err := h.orgs.Update(r.Context(), org); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, organizationResponse(org))
}

func (h *OrganizationsHandler) visibleOrg(r *http.Request, identity domain.Identity, orgID domain.OrganizationID) (*domain.Organization, bool, error) {
	org, err := h.orgs.GetByID(r.Context(), orgID)
	if err != nil || org == nil {
		return org, false, err
	}
	ids, err := h.scope.AccessibleOrganizationIDs(r.Context(), identity)
	if err != nil {
		return org, false, err
	}
	for _, id := range ids {
		if id == orgID {
			return org, true, nil
		}
	}
	return org, false, nil
}

func (h *OrganizationsHandler) identityAndOrg(w http.ResponseWriter, r *http.Request) (domain.Identity, domain.OrganizationID, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return domain.Identity{}, domain.OrganizationID{}, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid organization id")
		return domain.Identity{}, domain.OrganizationID{}, false
	}
	return identity, domain.NewOrganizationID(id), true
}
