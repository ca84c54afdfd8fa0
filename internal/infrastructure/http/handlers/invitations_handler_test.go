package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/invitation"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

type stubInvitationRepo struct {
	invitations []*domain.Invitation
}

func (s *stubInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	s.invitations = append(s.invitations, inv)
	return nil
}

func (s *stubInvitationRepo) GetByID(ctx context.Context, id domain.InvitationID) (*domain.Invitation, error) {
	for _, inv := range s.invitations {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (s *stubInvitationRepo) ListPendingByOrganization(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range s.invitations {
		if inv.OrganizationID == orgID && inv.Status == domain.InvitationPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *stubInvitationRepo) UpdateStatus(ctx context.Context, id domain.InvitationID, from, to domain.InvitationStatus) (int64, error) {
	for _, inv := range s.invitations {
		if inv.ID == id && inv.Status == from {
			inv.Status = to
			return 1, nil
		}
	}
	return 0, nil
}

type stubOrgRepo struct {
	orgs map[domain.OrganizationID]*domain.Organization
}

func (s *stubOrgRepo) GetByID(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	return s.orgs[id], nil
}

func (s *stubOrgRepo) ListActive(ctx context.Context) ([]*domain.Organization, error) {
	var out []*domain.Organization
	for _, o := range s.orgs {
		if o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrgRepo) ListActiveByIDs(ctx context.Context, ids []domain.OrganizationID) ([]*domain.Organization, error) {
	var out []*domain.Organization
	for _, id := range ids {
		if o, ok := s.orgs[id]; ok && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrgRepo) Update(ctx context.Context, org *domain.Organization) error { return nil }

type stubMembershipStore struct {
	memberships map[domain.UserID]*domain.Membership
}

func (s *stubMembershipStore) LookupMembership(ctx context.Context, userID domain.UserID) (*domain.Membership, error) {
	return s.memberships[userID], nil
}

func (s *stubMembershipStore) LookupAgentAssignments(ctx context.Context, userID domain.UserID) ([]domain.OrganizationID, error) {
	return nil, nil
}

func (s *stubMembershipStore) AddMembership(ctx context.Context, m *domain.Membership) error {
	s.memberships[m.UserID] = m
	return nil
}

func (s *stubMembershipStore) RemoveMembership(ctx context.Context, orgID domain.OrganizationID, userID domain.UserID) error {
	delete(s.memberships, userID)
	return nil
}

type noopEnqueuer struct{}

func (noopEnqueuer) EnqueueInvitationEmail(ctx context.Context, orgID, email, role, inviteURL string) error {
	return nil
}
func (noopEnqueuer) EnqueueAuditWebhook(ctx context.Context, event ports.AuditEvent) error {
	return nil
}

type noopSink struct{}

func (noopSink) Emit(ctx context.Context, e ports.AuditEvent) error { return nil }

func listPendingRequest(orgID domain.OrganizationID, identity domain.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/invitations", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orgID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithIdentity(ctx, identity)
	return req.WithContext(ctx)
}

// A client user in one tenant must not see another tenant's invitee emails.
func TestListPendingDeniedOutsideScope(t *testing.T) {
	tenantA := &domain.Organization{ID: domain.NewOrganizationID(uuid.New()), Name: "clinic a", Type: domain.OrganizationTypeClient, Active: true}
	tenantB := &domain.Organization{ID: domain.NewOrganizationID(uuid.New()), Name: "clinic b", Type: domain.OrganizationTypeClient, Active: true}
	orgs := &stubOrgRepo{orgs: map[domain.OrganizationID]*domain.Organization{tenantA.ID: tenantA, tenantB.ID: tenantB}}

	deskID := domain.NewUserID(uuid.New())
	memberships := &stubMembershipStore{memberships: map[domain.UserID]*domain.Membership{
		deskID: {OrganizationID: tenantA.ID, UserID: deskID, Role: domain.RoleFrontDesk},
	}}
	invitations := &stubInvitationRepo{invitations: []*domain.Invitation{{
		ID:             domain.NewInvitationID(uuid.New()),
		OrganizationID: tenantB.ID,
		Email:          "secret@clinic-b.example",
		Role:           domain.RoleTechnician,
		Status:         domain.InvitationPending,
	}}}

	scope := authz.NewScopeFilter(orgs, memberships)
	lifecycle := invitation.NewLifecycle(invitations, orgs, memberships, noopEnqueuer{}, noopSink{}, "https://praxis.example", zerolog.Nop())
	handler := NewInvitationsHandler(lifecycle, scope)

	desk := domain.Identity{UserID: deskID, Role: domain.RoleFrontDesk, OrganizationID: tenantA.ID, ActorID: deskID}
	rec := httptest.NewRecorder()
	handler.ListPending(rec, listPendingRequest(tenantB.ID, desk))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-tenant listing must be forbidden, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret@clinic-b.example") {
		t.Fatal("denial response must not leak invitee data")
	}

	// The same request inside the actor's own organization succeeds.
	rec = httptest.NewRecorder()
	handler.ListPending(rec, listPendingRequest(tenantA.ID, desk))
	if rec.Code != http.StatusOK {
		t.Fatalf("own-organization listing should succeed, got %d", rec.Code)
	}

	// Admin-family actors see any tenant.
	adminID := domain.NewUserID(uuid.New())
	admin := domain.Identity{UserID: adminID, Role: domain.RoleSystemAdmin, ActorID: adminID}
	rec = httptest.NewRecorder()
	handler.ListPending(rec, listPendingRequest(tenantB.ID, admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("system_admin listing should succeed, got %d", rec.Code)
	}
}
