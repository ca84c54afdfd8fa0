package invitation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

type fakeInvitationRepo struct {
	invitations map[domain.InvitationID]*domain.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: map[domain.InvitationID]*domain.Invitation{}}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id domain.InvitationID) (*domain.Invitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) ListPendingByOrganization(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for _, inv := range f.invitations {
		if inv.OrganizationID == orgID && inv.Status == domain.InvitationPending {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id domain.InvitationID, from, to domain.InvitationStatus) (int64, error) {
	inv, ok := f.invitations[id]
	if !ok || inv.Status != from {
		return 0, nil
	}
	inv.Status = to
	return 1, nil
}

type fakeOrgRepo struct {
	orgs map[domain.OrganizationID]*domain.Organization
}

func (f *fakeOrgRepo) GetByID(ctx context.Context, id domain.OrganizationID) (*domain.Organization, error) {
	return f.orgs[id], nil
}

func (f *fakeOrgRepo) ListActive(ctx context.Context) ([]*domain.Organization, error) {
	return nil, nil
}

func (f *fakeOrgRepo) ListActiveByIDs(ctx context.Context, ids []domain.OrganizationID) ([]*domain.Organization, error) {
	return nil, nil
}

func (f *fakeOrgRepo) Update(ctx context.Context, org *domain.Organization) error { return nil }

type fakeMembershipStore struct {
	memberships map[domain.UserID]*domain.Membership
}

func (f *fakeMembershipStore) LookupMembership(ctx context.Context, userID domain.UserID) (*domain.Membership, error) {
	return f.memberships[userID], nil
}

func (f *fakeMembershipStore) LookupAgentAssignments(ctx context.Context, userID domain.UserID) ([]domain.OrganizationID, error) {
	return nil, nil
}

func (f *fakeMembershipStore) AddMembership(ctx context.Context, m *domain.Membership) error {
	f.memberships[m.UserID] = m
	return nil
}

func (f *fakeMembershipStore) RemoveMembership(ctx context.Context, orgID domain.OrganizationID, userID domain.UserID) error {
	delete(f.memberships, userID)
	return nil
}

type recordingEnqueuer struct {
	emails int
	err    error
}

func (e *recordingEnqueuer) EnqueueInvitationEmail(ctx context.Context, orgID, email, role, inviteURL string) error {
	if e.err != nil {
		return e.err
	}
	e.emails++
	return nil
}

func (e *recordingEnqueuer) EnqueueAuditWebhook(ctx context.Context, event ports.AuditEvent) error {
	return nil
}

type recordingSink struct {
	events []ports.AuditEvent
}

func (s *recordingSink) Emit(ctx context.Context, e ports.AuditEvent) error {
	s.events = append(s.events, e)
	return nil
}

type fixture struct {
	lifecycle   *Lifecycle
	invitations *fakeInvitationRepo
	memberships *fakeMembershipStore
	enqueuer    *recordingEnqueuer
	sink        *recordingSink

	clientOrg *domain.Organization
	adminOrg  *domain.Organization
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clientOrg := &domain.Organization{ID: domain.NewOrganizationID(uuid.New()), Name: "clinic", Type: domain.OrganizationTypeClient, Active: true}
	adminOrg := &domain.Organization{ID: domain.NewOrganizationID(uuid.New()), Name: "platform", Type: domain.OrganizationTypeAdmin, Active: true}
	invitations := newFakeInvitationRepo()
	memberships := &fakeMembershipStore{memberships: map[domain.UserID]*domain.Membership{}}
	enqueuer := &recordingEnqueuer{}
	sink := &recordingSink{}
	orgs := &fakeOrgRepo{orgs: map[domain.OrganizationID]*domain.Organization{
		clientOrg.ID: clientOrg,
		adminOrg.ID:  adminOrg,
	}}
	lc := NewLifecycle(invitations, orgs, memberships, enqueuer, sink, "https://praxis.example", zerolog.Nop())
	return &fixture{
		lifecycle:   lc,
		invitations: invitations,
		memberships: memberships,
		enqueuer:    enqueuer,
		sink:        sink,
		clientOrg:   clientOrg,
		adminOrg:    adminOrg,
	}
}

func systemAdmin() domain.Identity {
	id := domain.NewUserID(uuid.New())
	return domain.Identity{UserID: id, Role: domain.RoleSystemAdmin, ActorID: id}
}

func platformAdmin() domain.Identity {
	id := domain.NewUserID(uuid.New())
	return domain.Identity{UserID: id, Role: domain.RolePlatformAdmin, ActorID: id}
}

func TestCreateInvitation(t *testing.T) {
	f := newFixture(t)
	inv, err := f.lifecycle.Create(context.Background(), platformAdmin(), f.clientOrg.ID, "Nurse@Example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Status != domain.InvitationPending {
		t.Fatalf("new invitation should be pending, got %s", inv.Status)
	}
	if inv.Email != "nurse@example.com" {
		t.Fatalf("email should be normalized, got %q", inv.Email)
	}
	if f.enqueuer.emails != 1 {
		t.Fatal("invitation email should be enqueued")
	}
	if len(f.sink.events) != 1 || f.sink.events[0].Action != ports.AuditInvitationCreate {
		t.Fatal("creation must emit an audit event")
	}
}

// Admin-family role into a client organization violates org-type affinity.
func TestCreateRoleMismatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.Create(context.Background(), platformAdmin(), f.clientOrg.ID, "agent@example.com", domain.RolePlatformAgent)
	if !errors.Is(err, domerrors.ErrInvalidRoleForOrganization) {
		t.Fatalf("expected ErrInvalidRoleForOrganization, got %v", err)
	}
	_, err = f.lifecycle.Create(context.Background(), platformAdmin(), f.adminOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if !errors.Is(err, domerrors.ErrInvalidRoleForOrganization) {
		t.Fatalf("expected ErrInvalidRoleForOrganization, got %v", err)
	}
}

func TestCreateUnauthorizedActor(t *testing.T) {
	f := newFixture(t)
	actorID := domain.NewUserID(uuid.New())
	actor := domain.Identity{UserID: actorID, Role: domain.RoleClientAdmin, OrganizationID: f.clientOrg.ID, ActorID: actorID}
	_, err := f.lifecycle.Create(context.Background(), actor, f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if !errors.Is(err, domerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// A persisted pending invitation survives email delivery failure.
func TestCreateSurvivesDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("queue down")
	inv, err := f.lifecycle.Create(context.Background(), systemAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := f.invitations.GetByID(context.Background(), inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.Status != domain.InvitationPending {
		t.Fatal("pending invitation must persist despite delivery failure")
	}
}

func TestCancelBySystemAdminBypassesMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	// The system_admin has no membership anywhere.
	if err := f.lifecycle.Cancel(ctx, systemAdmin(), inv.ID); err != nil {
		t.Fatal(err)
	}
	stored, _ := f.invitations.GetByID(ctx, inv.ID)
	if stored.Status != domain.InvitationCancelled {
		t.Fatalf("expected cancelled, got %s", stored.Status)
	}
}

func TestCancelByOrgClientAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	adminID := domain.NewUserID(uuid.New())
	f.memberships.memberships[adminID] = &domain.Membership{OrganizationID: f.clientOrg.ID, UserID: adminID, Role: domain.RoleClientAdmin}
	actor := domain.Identity{UserID: adminID, Role: domain.RoleClientAdmin, OrganizationID: f.clientOrg.ID, ActorID: adminID}
	if err := f.lifecycle.Cancel(ctx, actor, inv.ID); err != nil {
		t.Fatal(err)
	}
}

// platform_admin gets no membership bypass; only system_admin does.
func TestCancelPlatformAdminWithoutMembershipDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	err = f.lifecycle.Cancel(ctx, platformAdmin(), inv.ID)
	if !errors.Is(err, domerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCancelOtherOrgClientAdminDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	otherOrg := domain.NewOrganizationID(uuid.New())
	adminID := domain.NewUserID(uuid.New())
	f.memberships.memberships[adminID] = &domain.Membership{OrganizationID: otherOrg, UserID: adminID, Role: domain.RoleClientAdmin}
	actor := domain.Identity{UserID: adminID, Role: domain.RoleClientAdmin, OrganizationID: otherOrg, ActorID: adminID}
	err = f.lifecycle.Cancel(ctx, actor, inv.ID)
	if !errors.Is(err, domerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	admin := systemAdmin()
	if err := f.lifecycle.Cancel(ctx, admin, inv.ID); err != nil {
		t.Fatal(err)
	}
	auditAfterFirst := len(f.sink.events)
	if err := f.lifecycle.Cancel(ctx, admin, inv.ID); err != nil {
		t.Fatalf("second cancel must succeed: %v", err)
	}
	if len(f.sink.events) != auditAfterFirst {
		t.Fatal("idempotent cancel must not emit duplicate audit events")
	}
}

func TestCancelAcceptedInvitationIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "desk@example.com", domain.RoleFrontDesk)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.invitations.UpdateStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted); err != nil {
		t.Fatal(err)
	}
	if err := f.lifecycle.Cancel(ctx, systemAdmin(), inv.ID); err != nil {
		t.Fatal(err)
	}
	stored, _ := f.invitations.GetByID(ctx, inv.ID)
	if stored.Status != domain.InvitationAccepted {
		t.Fatalf("accepted invitation must stay accepted, got %s", stored.Status)
	}
}

func TestCancelUnknownInvitation(t *testing.T) {
	f := newFixture(t)
	err := f.lifecycle.Cancel(context.Background(), systemAdmin(), domain.NewInvitationID(uuid.New()))
	if !errors.Is(err, domerrors.ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "a@example.com", domain.RoleFrontDesk); err != nil {
		t.Fatal(err)
	}
	inv, err := f.lifecycle.Create(ctx, platformAdmin(), f.clientOrg.ID, "b@example.com", domain.RoleTechnician)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.lifecycle.Cancel(ctx, systemAdmin(), inv.ID); err != nil {
		t.Fatal(err)
	}
	pending, err := f.lifecycle.ListPending(ctx, f.clientOrg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Email != "a@example.com" {
		t.Fatalf("expected the one remaining pending invitation, got %d", len(pending))
	}
}
