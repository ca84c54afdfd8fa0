package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/useradmin"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

// UsersHandler handles /users/*. Requires JWT auth; every action is gated by
// the permission rules against the target's role.
type UsersHandler struct {
	admin *useradmin.Service
	scope *authz.ScopeFilter
}

// NewUsersHandler creates a handler for user administration endpoints.
func NewUsersHandler(admin *useradmin.Service, scope *authz.ScopeFilter) *UsersHandler {
	return &UsersHandler{admin: admin, scope: scope}
}

// UserResponse is the JSON shape for a user (no password hash).
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Banned    bool   `json:"banned"`
	Role      string `json:"role,omitempty"`
	OrgID     string `json:"organization_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userResponse(u *domain.User, m *domain.Membership) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Banned:    u.Banned,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if m != nil {
		resp.Role = m.Role.String()
		resp.OrgID = m.OrganizationID.String()
	}
	return resp
}

const defaultListLimit = 20
const maxListLimit = 100

// List returns users inside the actor's organization scope with optional
// limit/offset. An empty scope yields an empty list, not an error.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
			if limit > maxListLimit {
				limit = maxListLimit
			}
		}
	}
	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}
	users, err := h.admin.List(r.Context(), identity, h.scope, limit, offset)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, userResponse(u.User, u.Membership))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": items})
}

// Get returns a single user if the actor may view the target's role.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, targetID, ok := h.identityAndTarget(w, r)
	if !ok {
		return
	}
	result, err := h.admin.Get(r.Context(), identity, targetID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(result.User, result.Membership))
}

// Update applies profile changes to a user. Gated by canEdit.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, targetID, ok := h.identityAndTarget(w, r)
	if !ok {
		return
	}
	var body struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	user, err := h.admin.Update(r.Context(), identity, targetID, useradmin.UpdateProfile{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user, nil))
}

// Create provisions a user with a membership. Gated by canCreateRole and
// organization-type affinity.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	var body struct {
		Email          string `json:"email"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		Password       string `json:"password"`
		Role           string `json:"role"`
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeErr(w, http.StatusBadRequest, "", "email and password required")
		return
	}
	role, err := domain.ParseRole(body.Role)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid role")
		return
	}
	orgID, err := uuid.Parse(body.OrganizationID)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid organization_id")
		return
	}
	user, err := h.admin.Create(r.Context(), identity, useradmin.CreateParams{
		Email:          body.Email,
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Password:       body.Password,
		Role:           role,
		OrganizationID: domain.NewOrganizationID(orgID),
	})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse(user, nil))
}

// Ban suspends a user. Gated by canBan.
func (h *UsersHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// Unban lifts a suspension. Gated by canBan.
func (h *UsersHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *UsersHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	identity, targetID, ok := h.identityAndTarget(w, r)
	if !ok {
		return
	}
	err := h.admin.SetBanned(r.Context(), identity, targetID, banned)
	middleware.RecordAuthzDecision("ban", !errors.Is(err, domerrors.ErrUnauthorized))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"banned": banned})
}

func (h *UsersHandler) identityAndTarget(w http.ResponseWriter, r *http.Request) (domain.Identity, domain.UserID, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return domain.Identity{}, domain.UserID{}, false
	}
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid user id")
		return domain.Identity{}, domain.UserID{}, false
	}
	return identity, domain.NewUserID(id), true
}
