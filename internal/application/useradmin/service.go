package useradmin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

// Service is the administrative surface over users: view, edit, ban/unban and
// creation, each gated by the permission rules against the target's role.
type Service struct {
	users       ports.UserRepository
	orgs        ports.OrganizationRepository
	memberships ports.MembershipStore
	hasher      ports.PasswordHasher
	audit       ports.AuditSink
	log         zerolog.Logger
}

// NewService creates a user administration service.
func NewService(users ports.UserRepository, orgs ports.OrganizationRepository, memberships ports.MembershipStore, hasher ports.PasswordHasher, audit ports.AuditSink, log zerolog.Logger) *Service {
	return &Service{users: users, orgs: orgs, memberships: memberships, hasher: hasher, audit: audit, log: log}
}

// UserWithMembership pairs a user row with its membership for responses.
type UserWithMembership struct {
	User       *domain.User
	Membership *domain.Membership
}

// List returns users inside the actor's organization scope. An empty scope
// yields an empty slice.
func (s *Service) List(ctx context.Context, actor domain.Identity, scope *authz.ScopeFilter, limit, offset int) ([]*UserWithMembership, error) {
	orgIDs, err := scope.AccessibleOrganizationIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(orgIDs) == 0 {
		return []*UserWithMembership{}, nil
	}
	users, err := s.users.List(ctx, orgIDs, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*UserWithMembership, 0, len(users))
	for _, u := range users {
		membership, err := s.memberships.LookupMembership(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("load membership: %w", err)
		}
		out = append(out, &UserWithMembership{User: u, Membership: membership})
	}
	return out, nil
}

// Get returns the target user if the actor's role may view the target's role.
func (s *Service) Get(ctx context.Context, actor domain.Identity, targetID domain.UserID) (*UserWithMembership, error) {
	target, membership, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(actor.Role, membership.Role) {
		return nil, domerrors.ErrUnauthorized
	}
	// Client admins only see users inside their own organization.
	if actor.Role == domain.RoleClientAdmin && membership.OrganizationID != actor.OrganizationID {
		return nil, domerrors.ErrUnauthorized
	}
	return &UserWithMembership{User: target, Membership: membership}, nil
}

// UpdateProfile is the edit request body applied to a target user.
type UpdateProfile struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// Update applies profile changes to the target if the actor may edit the
// target's role.
func (s *Service) Update(ctx context.Context, actor domain.Identity, targetID domain.UserID, upd UpdateProfile) (*domain.User, error) {
	target, membership, err := s.load(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(actor.Role, membership.Role) {
		return nil, domerrors.ErrUnauthorized
	}
	if actor.Role == domain.RoleClientAdmin && membership.OrganizationID != actor.OrganizationID {
		return nil, domerrors.ErrUnauthorized
	}
	if upd.FirstName != nil {
		target.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		target.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("valid email is required")
		}
		target.Email = email
	}
	target.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return target, nil
}

// SetBanned bans or unbans the target if the actor may ban the target's role.
// Banning an already-banned user (or unbanning an active one) is a no-op
// success.
func (s *Service) SetBanned(ctx context.Context, actor domain.Identity, targetID domain.UserID, banned bool) error {
	target, membership, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}
	if !authz.CanBan(actor.Role, membership.Role) {
		return domerrors.ErrUnauthorized
	}
	if actor.Role == domain.RoleClientAdmin && membership.OrganizationID != actor.OrganizationID {
		return domerrors.ErrUnauthorized
	}
	if target.Banned == banned {
		return nil
	}
	if err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}

	action := ports.AuditUserBan
	if !banned {
		action = ports.AuditUserUnban
	}
	if err := s.audit.Emit(ctx, ports.AuditEvent{
		Action:    action,
		ActorID:   actor.ActorID.String(),
		TargetID:  targetID.String(),
		OrgID:     membership.OrganizationID.String(),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Str("target_id", targetID.String()).Msg("ban audit emission failed")
	}
	return nil
}

// CreateParams describes a user created directly by an administrator.
type CreateParams struct {
	Email          string
	FirstName      string
	LastName       string
	Password       string
	Role           domain.Role
	OrganizationID domain.OrganizationID
}

// Create provisions a user with a membership. The actor must be allowed to
// create the proposed role and to assign into the organization, and the role
// must match the organization's type.
func (s *Service) Create(ctx context.Context, actor domain.Identity, p CreateParams) (*domain.User, error) {
	if !authz.CanCreateRole(actor.Role, p.Role) {
		return nil, domerrors.ErrUnauthorized
	}
	org, err := s.orgs.GetByID(ctx, p.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		return nil, domerrors.ErrOrganizationNotFound
	}
	if !authz.CanAssignToOrganization(actor.Role, org.Type) {
		return nil, domerrors.ErrUnauthorized
	}
	if !domain.RoleAssignableTo(p.Role, org.Type) {
		return nil, domerrors.ErrInvalidRoleForOrganization
	}

	email := strings.ToLower(strings.TrimSpace(p.Email))
	if existing, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	} else if existing != nil {
		return nil, domerrors.ErrUserExists
	}
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           domain.NewUserID(uuid.New()),
		Email:        email,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.memberships.AddMembership(ctx, &domain.Membership{
		OrganizationID: p.OrganizationID,
		UserID:         user.ID,
		Role:           p.Role,
		CreatedAt:      now,
	}); err != nil {
		// A user without a membership is unreachable by any scope; undo the
		// insert so the email stays available for a retry.
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("user_id", user.ID.String()).Msg("orphaned user cleanup failed")
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}

	if err := s.audit.Emit(ctx, ports.AuditEvent{
		Action:    ports.AuditRoleChange,
		ActorID:   actor.ActorID.String(),
		TargetID:  user.ID.String(),
		OrgID:     p.OrganizationID.String(),
		Detail:    fmt.Sprintf("created with role %s", p.Role),
		Timestamp: now,
	}); err != nil {
		s.log.Warn().Err(err).Str("target_id", user.ID.String()).Msg("create audit emission failed")
	}
	return user, nil
}

func (s *Service) load(ctx context.Context, targetID domain.UserID) (*domain.User, *domain.Membership, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if target == nil {
		return nil, nil, domerrors.ErrUserNotFound
	}
	membership, err := s.memberships.LookupMembership(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("load membership: %w", err)
	}
	if membership == nil {
		return nil, nil, domerrors.ErrUserNotFound
	}
	return target, membership, nil
}
