package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
)

// Sink is the audit pipeline: every event is logged, appended to the durable
// audit store, and fanned out asynchronously to the configured webhook. The
// durable append is the mandatory leg; log and webhook are best effort.
type Sink struct {
	store    ports.AuditLogRepository
	enqueuer ports.TaskEnqueuer
	log      zerolog.Logger
}

// NewSink creates an audit sink. enqueuer may be a noop when no webhook is
// configured.
func NewSink(store ports.AuditLogRepository, enqueuer ports.TaskEnqueuer, log zerolog.Logger) *Sink {
	return &Sink{store: store, enqueuer: enqueuer, log: log}
}

// Emit implements ports.AuditSink.
func (s *Sink) Emit(ctx context.Context, event ports.AuditEvent) error {
	ev := s.log.Info().
		Str("action", event.Action).
		Str("actor_id", event.ActorID)
	if event.TargetID != "" {
		ev = ev.Str("target_id", event.TargetID)
	}
	if event.OrgID != "" {
		ev = ev.Str("org_id", event.OrgID)
	}
	if event.Detail != "" {
		ev = ev.Str("detail", event.Detail)
	}
	ev.Msg("audit")

	if err := s.store.Append(ctx, event); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	if err := s.enqueuer.EnqueueAuditWebhook(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("audit webhook enqueue failed")
	}
	return nil
}

var _ ports.AuditSink = (*Sink)(nil)
