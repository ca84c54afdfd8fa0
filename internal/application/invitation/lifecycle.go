package invitation

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

// Lifecycle manages pending organization invitations. States: pending ->
// accepted | cancelled | expired; terminal states never transition again.
// Acceptance and expiry are driven externally.
type Lifecycle struct {
	invitations ports.InvitationRepository
	orgs        ports.OrganizationRepository
	memberships ports.MembershipStore
	enqueuer    ports.TaskEnqueuer
	audit       ports.AuditSink
	inviteBase  string
	log         zerolog.Logger
}

// NewLifecycle creates an invitation lifecycle service. inviteBaseURL is the
// base for the acceptance links sent by email.
func NewLifecycle(invitations ports.InvitationRepository, orgs ports.OrganizationRepository, memberships ports.MembershipStore, enqueuer ports.TaskEnqueuer, audit ports.AuditSink, inviteBaseURL string, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		invitations: invitations,
		orgs:        orgs,
		memberships: memberships,
		enqueuer:    enqueuer,
		audit:       audit,
		inviteBase:  strings.TrimRight(inviteBaseURL, "/"),
		log:         log,
	}
}

// Create issues a pending invitation for email to join org with the proposed
// role. The actor must be allowed to assign into the organization and the role
// must match the organization's type. Email delivery happens after the
// invitation persists; a delivery failure does not roll it back.
func (l *Lifecycle) Create(ctx context.Context, actor domain.Identity, orgID domain.OrganizationID, email string, role domain.Role) (*domain.Invitation, error) {
	org, err := l.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		return nil, domerrors.ErrOrganizationNotFound
	}
	if !authz.CanAssignToOrganization(actor.Role, org.Type) {
		return nil, domerrors.ErrUnauthorized
	}
	if !domain.RoleAssignableTo(role, org.Type) {
		return nil, domerrors.ErrInvalidRoleForOrganization
	}

	now := time.Now().UTC()
	inv := &domain.Invitation{
		ID:             domain.NewInvitationID(uuid.New()),
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Role:           role,
		Status:         domain.InvitationPending,
		InvitedBy:      actor.ActorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("persist invitation: %w", err)
	}

	if err := l.audit.Emit(ctx, ports.AuditEvent{
		Action:    ports.AuditInvitationCreate,
		ActorID:   actor.ActorID.String(),
		OrgID:     orgID.String(),
		Detail:    fmt.Sprintf("email=%s role=%s", inv.Email, role),
		Timestamp: now,
	}); err != nil {
		l.log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("invitation audit emission failed")
	}

	inviteURL := fmt.Sprintf("%s/invitations/%s/accept", l.inviteBase, inv.ID)
	if err := l.enqueuer.EnqueueInvitationEmail(ctx, orgID.String(), inv.Email, role.String(), inviteURL); err != nil {
		// The pending invitation stands regardless of delivery outcome.
		l.log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("enqueue invitation email failed")
	}
	return inv, nil
}

// Cancel moves a pending invitation to cancelled. A system_admin actor
// bypasses the organization-membership check entirely; any other actor must be
// a client_admin of the invitation's organization. Cancelling a non-pending
// invitation is an idempotent no-op success.
func (l *Lifecycle) Cancel(ctx context.Context, actor domain.Identity, id domain.InvitationID) error {
	inv, err := l.invitations.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load invitation: %w", err)
	}
	if inv == nil {
		return domerrors.ErrInvitationNotFound
	}

	if actor.Role != domain.RoleSystemAdmin {
		// Operational escape hatch applies to system_admin only; everyone else
		// goes through the per-organization admin check.
		allowed, err := l.isOrgAdmin(ctx, actor, inv.OrganizationID)
		if err != nil {
			return err
		}
		if !allowed {
			return domerrors.ErrUnauthorized
		}
	}

	if inv.Status != domain.InvitationPending {
		return nil
	}
	moved, err := l.invitations.UpdateStatus(ctx, id, domain.InvitationPending, domain.InvitationCancelled)
	if err != nil {
		return fmt.Errorf("cancel invitation: %w", err)
	}
	if moved == 0 {
		// Lost a race with acceptance or expiry; terminal either way.
		return nil
	}

	if err := l.audit.Emit(ctx, ports.AuditEvent{
		Action:    ports.AuditInvitationCancel,
		ActorID:   actor.ActorID.String(),
		OrgID:     inv.OrganizationID.String(),
		Detail:    fmt.Sprintf("invitation_id=%s", id),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		l.log.Warn().Err(err).Str("invitation_id", id.String()).Msg("cancellation audit emission failed")
	}
	return nil
}

// ListPending returns the pending invitations of one organization.
func (l *Lifecycle) ListPending(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Invitation, error) {
	return l.invitations.ListPendingByOrganization(ctx, orgID)
}

// isOrgAdmin is the normal per-organization admin check: the actor must hold a
// client_admin membership in that organization. Only system_admin skips it.
func (l *Lifecycle) isOrgAdmin(ctx context.Context, actor domain.Identity, orgID domain.OrganizationID) (bool, error) {
	m, err := l.memberships.LookupMembership(ctx, actor.UserID)
	if err != nil {
		return false, fmt.Errorf("load actor membership: %w", err)
	}
	if m == nil {
		return false, nil
	}
	return m.OrganizationID == orgID && m.Role == domain.RoleClientAdmin, nil
}
