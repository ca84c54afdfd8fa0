package impersonation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/authz"
	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

// Manager drives the impersonation state machine: Idle -> Active -> Idle.
// An actor's real identity is never discarded while a session is active, only
// shadowed by the target's overlay. Stop is always reachable from the actor
// side without the target's cooperation.
type Manager struct {
	sessions    ports.ImpersonationStore
	users       ports.UserRepository
	memberships ports.MembershipStore
	audit       ports.AuditSink
	log         zerolog.Logger
}

// NewManager creates an impersonation manager.
func NewManager(sessions ports.ImpersonationStore, users ports.UserRepository, memberships ports.MembershipStore, audit ports.AuditSink, log zerolog.Logger) *Manager {
	return &Manager{sessions: sessions, users: users, memberships: memberships, audit: audit, log: log}
}

// Start begins impersonating target on behalf of actor. The returned identity
// carries the target's role and organization with the actor recorded as the
// real, auditable user. Callers must discard any cached identity and re-issue
// credentials from the returned overlay before trusting further authorization
// decisions.
func (m *Manager) Start(ctx context.Context, actor domain.Identity, targetID domain.UserID) (domain.Identity, error) {
	if actor.Impersonating() {
		// Nested impersonation would lose the real identity.
		return domain.Identity{}, domerrors.ErrConflictingSession
	}

	target, err := m.users.GetByID(ctx, targetID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load target: %w", err)
	}
	if target == nil {
		return domain.Identity{}, domerrors.ErrUserNotFound
	}
	targetMembership, err := m.memberships.LookupMembership(ctx, targetID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load target membership: %w", err)
	}
	if targetMembership == nil {
		return domain.Identity{}, domerrors.ErrUserNotFound
	}

	if !authz.CanImpersonate(actor.Role, targetMembership.Role) {
		if actor.Role == domain.RoleSystemAdmin {
			// Role was sufficient; the target disqualifies the action.
			return domain.Identity{}, domerrors.ErrTargetIneligible
		}
		return domain.Identity{}, domerrors.ErrUnauthorized
	}
	if target.Banned {
		return domain.Identity{}, domerrors.ErrTargetIneligible
	}

	session := domain.ImpersonationSession{
		ActorID:   actor.UserID,
		TargetID:  targetID,
		StartedAt: time.Now().UTC(),
	}
	claimed, err := m.sessions.Claim(ctx, session)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("claim session: %w", err)
	}
	if !claimed {
		return domain.Identity{}, domerrors.ErrConflictingSession
	}

	event := ports.AuditEvent{
		Action:    ports.AuditImpersonationStart,
		ActorID:   actor.UserID.String(),
		TargetID:  targetID.String(),
		OrgID:     targetMembership.OrganizationID.String(),
		Timestamp: session.StartedAt,
	}
	if err := m.audit.Emit(ctx, event); err != nil {
		// Audit emission is mandatory for impersonation; roll back the claim.
		_ = m.sessions.Release(ctx, actor.UserID)
		return domain.Identity{}, fmt.Errorf("emit audit event: %w", err)
	}

	m.log.Info().
		Str("actor_id", actor.UserID.String()).
		Str("target_id", targetID.String()).
		Msg("impersonation started")

	return domain.Identity{
		UserID:         targetID,
		Role:           targetMembership.Role,
		OrganizationID: targetMembership.OrganizationID,
		ActorID:        actor.UserID,
	}, nil
}

// Stop ends the actor's active impersonation session and returns the actor's
// restored identity. Stopping while idle is an idempotent no-op success.
func (m *Manager) Stop(ctx context.Context, actorID domain.UserID) (domain.Identity, error) {
	session, err := m.sessions.Get(ctx, actorID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load session: %w", err)
	}
	if session != nil {
		// Release before resolving the actor's identity: a membership that
		// disappeared mid-session must not pin the claim forever.
		if err := m.sessions.Release(ctx, actorID); err != nil {
			return domain.Identity{}, fmt.Errorf("release session: %w", err)
		}
		event := ports.AuditEvent{
			Action:    ports.AuditImpersonationStop,
			ActorID:   actorID.String(),
			TargetID:  session.TargetID.String(),
			Timestamp: time.Now().UTC(),
		}
		if err := m.audit.Emit(ctx, event); err != nil {
			// The session is already released; restoring identity wins over
			// audit delivery here, so log loudly instead of failing the stop.
			m.log.Error().Err(err).
				Str("actor_id", actorID.String()).
				Msg("impersonation stop audit emission failed")
		}
		m.log.Info().
			Str("actor_id", actorID.String()).
			Str("previous_target_id", session.TargetID.String()).
			Msg("impersonation stopped")
	}

	return m.identityOf(ctx, actorID)
}

// Active returns the actor's current session, or nil when idle.
func (m *Manager) Active(ctx context.Context, actorID domain.UserID) (*domain.ImpersonationSession, error) {
	return m.sessions.Get(ctx, actorID)
}

func (m *Manager) identityOf(ctx context.Context, userID domain.UserID) (domain.Identity, error) {
	membership, err := m.memberships.LookupMembership(ctx, userID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("load membership: %w", err)
	}
	if membership == nil {
		return domain.Identity{}, domerrors.ErrUserNotFound
	}
	return domain.Identity{
		UserID:         userID,
		Role:           membership.Role,
		OrganizationID: membership.OrganizationID,
		ActorID:        userID,
	}, nil
}
