package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxishq/praxis/internal/application/ports"
)

const (
	insertAuditEventSQL = `
INSERT INTO audit_log (id, action, actor_id, target_id, org_id, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	deleteAuditBeforeSQL = `
DELETE FROM audit_log WHERE created_at < $1;`
)

// AuditLogRepository appends audit events to postgres. The table is
// append-only; the only delete path is the retention janitor.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

func (r *AuditLogRepository) Append(ctx context.Context, e ports.AuditEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, insertAuditEventSQL,
		uuid.New(), e.Action, e.ActorID, nullable(e.TargetID), nullable(e.OrgID), nullable(e.Detail), ts)
	return err
}

func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteAuditBeforeSQL, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ ports.AuditLogRepository = (*AuditLogRepository)(nil)
