package ports

import "context"

// TaskEnqueuer enqueues async tasks (email, webhook). Delivery failure never
// rolls back the state change that triggered the task.
type TaskEnqueuer interface {
	EnqueueInvitationEmail(ctx context.Context, orgID, email, role, inviteURL string) error
	EnqueueAuditWebhook(ctx context.Context, event AuditEvent) error
}
