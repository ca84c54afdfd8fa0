package queue

import (
	"context"

	"github.com/praxishq/praxis/internal/application/ports"
)

// NoopEnqueuer drops tasks. Used when redis is not configured; invitation
// creation still succeeds, delivery is simply skipped.
type NoopEnqueuer struct{}

// NewNoopEnqueuer returns an enqueuer that does nothing.
func NewNoopEnqueuer() *NoopEnqueuer { return &NoopEnqueuer{} }

func (NoopEnqueuer) EnqueueInvitationEmail(ctx context.Context, orgID, email, role, inviteURL string) error {
	return nil
}

func (NoopEnqueuer) EnqueueAuditWebhook(ctx context.Context, event ports.AuditEvent) error {
	return nil
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)
