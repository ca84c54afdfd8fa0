package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
)

const (
	TypeSendInvitation = "email:invitation"
	TypeAuditWebhook   = "audit:webhook"
)

// TaskEnqueuer enqueues async tasks on asynq (redis-backed).
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) (*TaskEnqueuer, error) {
	client := asynq.NewClient(redisOpt)
	return &TaskEnqueuer{client: client, log: log}, nil
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueInvitationEmail(ctx context.Context, orgID, email, role, inviteURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"org_id":     orgID,
		"email":      email,
		"role":       role,
		"invite_url": inviteURL,
	})
	task := asynq.NewTask(TypeSendInvitation, payload)
	_, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue invitation email failed")
		return err
	}
	return nil
}

func (q *TaskEnqueuer) EnqueueAuditWebhook(ctx context.Context, event ports.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeAuditWebhook, payload)
	_, err = q.client.EnqueueContext(ctx, task)
	if err != nil {
		q.log.Warn().Err(err).Str("action", event.Action).Msg("enqueue audit webhook failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
