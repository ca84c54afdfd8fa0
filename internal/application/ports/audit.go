package ports

import (
	"context"
	"time"
)

// Audit actions emitted by the core. Impersonation start/stop are mandatory;
// ban/unban and role changes are emitted as well.
const (
	AuditImpersonationStart = "impersonation_start"
	AuditImpersonationStop  = "impersonation_stop"
	AuditUserBan            = "user_ban"
	AuditUserUnban          = "user_unban"
	AuditInvitationCreate   = "invitation_create"
	AuditInvitationCancel   = "invitation_cancel"
	AuditRoleChange         = "role_change"
)

// AuditEvent is a single append-only audit record. Actor is always the real
// authenticated identity, never an impersonation overlay.
type AuditEvent struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id,omitempty"`
	OrgID     string    `json:"org_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditSink accepts audit events. Implementations must not drop impersonation
// events silently.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent) error
}

// WebhookEmitter forwards audit events to an external HTTP endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
