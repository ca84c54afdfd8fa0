package ports

import (
	"context"

	"github.com/praxishq/praxis/internal/domain"
)

// ImpersonationStore persists at most one active overlay session per actor.
type ImpersonationStore interface {
	// Claim stores the session if and only if the actor has no active session.
	// Returns false when a session already exists (the claim is atomic, so two
	// concurrent starts by the same actor cannot both succeed).
	Claim(ctx context.Context, s domain.ImpersonationSession) (bool, error)
	// Get returns the actor's active session, or nil when idle.
	Get(ctx context.Context, actorID domain.UserID) (*domain.ImpersonationSession, error)
	// Release removes the actor's session. Releasing an idle actor is a no-op.
	Release(ctx context.Context, actorID domain.UserID) error
}
