package impersonation

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

type fakeSessionStore struct {
	sessions map[domain.UserID]domain.ImpersonationSession
	err      error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[domain.UserID]domain.ImpersonationSession{}}
}

func (f *fakeSessionStore) Claim(ctx context.Context, sess domain.ImpersonationSession) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, exists := f.sessions[sess.ActorID]; exists {
		return false, nil
	}
	f.sessions[sess.ActorID] = sess
	return true, nil
}

func (f *fakeSessionStore) Get(ctx context.Context, actorID domain.UserID) (*domain.ImpersonationSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[actorID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (f *fakeSessionStore) Release(ctx context.Context, actorID domain.UserID) error {
	delete(f.sessions, actorID)
	return nil
}

type fakeUserRepo struct {
	users map[domain.UserID]*domain.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) List(ctx context.Context, orgIDs []domain.OrganizationID, limit, offset int) ([]*domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error { return nil }

func (f *fakeUserRepo) SetBanned(ctx context.Context, id domain.UserID, banned bool) error {
	if u, ok := f.users[id]; ok {
		u.Banned = banned
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id domain.UserID) error {
	delete(f.users, id)
	return nil
}

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

type recordingSink struct {
	events []ports.AuditEvent
	err    error
}

func (s *recordingSink) Emit(ctx context.Context, e ports.AuditEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

type fixture struct {
	manager     *Manager
	sessions    *fakeSessionStore
	users       *fakeUserRepo
	memberships *fakeMembershipStore
	sink        *recordingSink

	adminOrg  domain.OrganizationID
	clientOrg domain.OrganizationID
	admin     domain.Identity
	target    domain.UserID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := newFakeSessionStore()
	users := &fakeUserRepo{users: map[domain.UserID]*domain.User{}}
	memberships := &fakeMembershipStore{memberships: map[domain.UserID]*domain.Membership{}}
	sink := &recordingSink{}
	manager := NewManager(sessions, users, memberships, sink, zerolog.Nop())

	adminOrg := domain.NewOrganizationID(uuid.New())
	clientOrg := domain.NewOrganizationID(uuid.New())

	adminID := domain.NewUserID(uuid.New())
	users.users[adminID] = &domain.User{ID: adminID, Email: "admin@example.com"}
	memberships.memberships[adminID] = &domain.Membership{OrganizationID: adminOrg, UserID: adminID, Role: domain.RoleSystemAdmin}

	targetID := domain.NewUserID(uuid.New())
	users.users[targetID] = &domain.User{ID: targetID, Email: "target@example.com"}
	memberships.memberships[targetID] = &domain.Membership{OrganizationID: clientOrg, UserID: targetID, Role: domain.RoleFrontDesk}

	return &fixture{
		manager:     manager,
		sessions:    sessions,
		users:       users,
		memberships: memberships,
		sink:        sink,
		adminOrg:    adminOrg,
		clientOrg:   clientOrg,
		admin: domain.Identity{
			UserID:         adminID,
			Role:           domain.RoleSystemAdmin,
			OrganizationID: adminOrg,
			ActorID:        adminID,
		},
		target: targetID,
	}
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	overlay, err := f.manager.Start(ctx, f.admin, f.target)
	if err != nil {
		t.Fatal(err)
	}
	if overlay.UserID != f.target || overlay.Role != domain.RoleFrontDesk {
		t.Fatal("overlay must carry the target's identity and role")
	}
	if overlay.ActorID != f.admin.UserID {
		t.Fatal("overlay must preserve the real actor")
	}
	if !overlay.Impersonating() {
		t.Fatal("overlay must report impersonating")
	}
	if len(f.sink.events) != 1 || f.sink.events[0].Action != ports.AuditImpersonationStart {
		t.Fatal("start must emit exactly one audit event")
	}

	restored, err := f.manager.Stop(ctx, f.admin.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.UserID != f.admin.UserID || restored.Role != domain.RoleSystemAdmin {
		t.Fatal("stop must restore the actor's own identity")
	}
	if restored.Impersonating() {
		t.Fatal("restored identity must not be an overlay")
	}
	if len(f.sink.events) != 2 || f.sink.events[1].Action != ports.AuditImpersonationStop {
		t.Fatal("stop must emit an audit event")
	}
}

func TestStartSecondSessionConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.manager.Start(ctx, f.admin, f.target); err != nil {
		t.Fatal(err)
	}
	_, err := f.manager.Start(ctx, f.admin, f.target)
	if !errors.Is(err, domerrors.ErrConflictingSession) {
		t.Fatalf("expected ErrConflictingSession, got %v", err)
	}
}

func TestStartFromOverlayConflicts(t *testing.T) {
	f := newFixture(t)
	overlay := domain.Identity{
		UserID:         f.target,
		Role:           domain.RoleFrontDesk,
		OrganizationID: f.clientOrg,
		ActorID:        f.admin.UserID,
	}
	_, err := f.manager.Start(context.Background(), overlay, f.target)
	if !errors.Is(err, domerrors.ErrConflictingSession) {
		t.Fatalf("expected ErrConflictingSession, got %v", err)
	}
}

func TestStartNonAdminActorUnauthorized(t *testing.T) {
	f := newFixture(t)
	actor := f.admin
	actor.Role = domain.RolePlatformAdmin
	_, err := f.manager.Start(context.Background(), actor, f.target)
	if !errors.Is(err, domerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStartSystemAdminTargetIneligible(t *testing.T) {
	f := newFixture(t)
	// Promote the target to system_admin.
	m := &domain.Membership{OrganizationID: f.adminOrg, UserID: f.target, Role: domain.RoleSystemAdmin}
	if err := f.manager.memberships.AddMembership(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	_, err := f.manager.Start(context.Background(), f.admin, f.target)
	if !errors.Is(err, domerrors.ErrTargetIneligible) {
		t.Fatalf("expected ErrTargetIneligible, got %v", err)
	}
}

func TestStartBannedTargetIneligible(t *testing.T) {
	f := newFixture(t)
	f.users.users[f.target].Banned = true
	_, err := f.manager.Start(context.Background(), f.admin, f.target)
	if !errors.Is(err, domerrors.ErrTargetIneligible) {
		t.Fatalf("expected ErrTargetIneligible, got %v", err)
	}
}

func TestStartUnknownTarget(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.Start(context.Background(), f.admin, domain.NewUserID(uuid.New()))
	if !errors.Is(err, domerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

// Audit delivery failing must leave no claimed session behind.
func TestStartAuditFailureReleasesClaim(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("audit store down")
	if _, err := f.manager.Start(context.Background(), f.admin, f.target); err == nil {
		t.Fatal("expected error when audit emission fails")
	}
	if len(f.sessions.sessions) != 0 {
		t.Fatal("claim must be released on audit failure")
	}
	// Session area is clean, so a retry succeeds.
	f.sink.err = nil
	if _, err := f.manager.Start(context.Background(), f.admin, f.target); err != nil {
		t.Fatalf("retry after audit failure: %v", err)
	}
}

func TestStopWhileIdleIsNoOp(t *testing.T) {
	f := newFixture(t)
	restored, err := f.manager.Stop(context.Background(), f.admin.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if restored.UserID != f.admin.UserID || restored.Role != domain.RoleSystemAdmin {
		t.Fatal("idle stop must still return the actor's identity")
	}
	if len(f.sink.events) != 0 {
		t.Fatal("idle stop must not emit audit events")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.manager.Start(ctx, f.admin, f.target); err != nil {
		t.Fatal(err)
	}
	if _, err := f.manager.Stop(ctx, f.admin.UserID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.manager.Stop(ctx, f.admin.UserID); err != nil {
		t.Fatalf("second stop must succeed: %v", err)
	}
	if len(f.sink.events) != 2 {
		t.Fatalf("expected start+stop audit events only, got %d", len(f.sink.events))
	}
}

// An actor whose membership vanished mid-session must still be able to
// release the claim; otherwise the session slot is pinned forever.
func TestStopReleasesSessionWhenMembershipGone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.manager.Start(ctx, f.admin, f.target); err != nil {
		t.Fatal(err)
	}
	delete(f.memberships.memberships, f.admin.UserID)

	_, err := f.manager.Stop(ctx, f.admin.UserID)
	if !errors.Is(err, domerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	sess, err := f.sessions.Get(ctx, f.admin.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Fatal("stop must release the session even when the membership is gone")
	}
}

func TestActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.manager.Active(ctx, f.admin.UserID)
	if err != nil || sess != nil {
		t.Fatalf("expected no session, got %v, %v", sess, err)
	}
	if _, err := f.manager.Start(ctx, f.admin, f.target); err != nil {
		t.Fatal(err)
	}
	sess, err = f.manager.Active(ctx, f.admin.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.TargetID != f.target {
		t.Fatal("active session must reference the target")
	}
}
