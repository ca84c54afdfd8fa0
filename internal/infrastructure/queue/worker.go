package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
)

// invitationPayload matches the JSON enqueued by TaskEnqueuer.EnqueueInvitationEmail.
type invitationPayload struct {
	OrgID     string `json:"org_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	InviteURL string `json:"invite_url"`
}

// Worker runs asynq task handlers (invitation email, audit webhook fan-out).
type Worker struct {
	srv     *asynq.Server
	mux     *asynq.ServeMux
	emitter ports.WebhookEmitter
	log     zerolog.Logger
}

// NewWorker creates an asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisClientOpt, emitter ports.WebhookEmitter, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, emitter: emitter, log: log}
	mux.HandleFunc(TypeSendInvitation, w.handleSendInvitation)
	mux.HandleFunc(TypeAuditWebhook, w.handleAuditWebhook)
	return w
}

func (w *Worker) handleSendInvitation(ctx context.Context, t *asynq.Task) error {
	var p invitationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("invitation task payload invalid")
		return err
	}
	// Dev: log the link; production would send email via SMTP/sendgrid etc.
	w.log.Info().
		Str("org_id", p.OrgID).
		Str("email", p.Email).
		Str("role", p.Role).
		Str("invite_url", p.InviteURL).
		Msg("invitation email (log only; configure SMTP for real email)")
	return nil
}

func (w *Worker) handleAuditWebhook(ctx context.Context, t *asynq.Task) error {
	var e ports.AuditEvent
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		w.log.Error().Err(err).Msg("audit webhook task payload invalid")
		return err
	}
	if w.emitter == nil {
		return nil
	}
	return w.emitter.Emit(ctx, e)
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker gracefully.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
