package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
)

const (
	insertInvitationSQL = `
INSERT INTO invitations (id, organization_id, email, role, status, invited_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	selectInvitationByIDSQL = `
SELECT id, organization_id, email, role, status, invited_by, created_at, updated_at
FROM invitations WHERE id = $1;`

	selectPendingInvitationsSQL = `
SELECT id, organization_id, email, role, status, invited_by, created_at, updated_at
FROM invitations WHERE organization_id = $1 AND status = 'pending'
ORDER BY created_at;`

	// Guarded transition: moves only rows still in the expected status, so a
	// cancellation racing an acceptance cannot clobber a terminal state.
	updateInvitationStatusSQL = `
UPDATE invitations SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2;`
)

// InvitationRepository persists invitations in postgres.
type InvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) *InvitationRepository {
	return &InvitationRepository{pool: pool}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	_, err := r.pool.Exec(ctx, insertInvitationSQL,
		inv.ID.UUID, inv.OrganizationID.UUID, inv.Email, inv.Role.String(),
		string(inv.Status), inv.InvitedBy.UUID, inv.CreatedAt, inv.UpdatedAt)
	return err
}

func (r *InvitationRepository) GetByID(ctx context.Context, id domain.InvitationID) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.pool.QueryRow(ctx, selectInvitationByIDSQL, id.UUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inv, nil
}

func (r *InvitationRepository) ListPendingByOrganization(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Invitation, error) {
	rows, err := r.pool.Query(ctx, selectPendingInvitationsSQL, orgID.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *InvitationRepository) UpdateStatus(ctx context.Context, id domain.InvitationID, from, to domain.InvitationStatus) (int64, error) {
	tag, err := r.pool.Exec(ctx, updateInvitationStatusSQL, id.UUID, string(from), string(to))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var (
		inv       domain.Invitation
		rawRole   string
		rawStatus string
	)
	if err := row.Scan(&inv.ID.UUID, &inv.OrganizationID.UUID, &inv.Email,
		&rawRole, &rawStatus, &inv.InvitedBy.UUID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseInvitationStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	inv.Role = role
	inv.Status = status
	return &inv, nil
}

var _ ports.InvitationRepository = (*InvitationRepository)(nil)
