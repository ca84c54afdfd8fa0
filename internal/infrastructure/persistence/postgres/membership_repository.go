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
	selectMembershipSQL = `
SELECT organization_id, user_id, role, created_at
FROM memberships WHERE user_id = $1;`

	selectAgentAssignmentsSQL = `
SELECT organization_id FROM agent_assignments WHERE user_id = $1;`

	insertMembershipSQL = `
INSERT INTO memberships (organization_id, user_id, role, created_at)
VALUES ($1, $2, $3, $4);`

	deleteMembershipSQL = `
DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2;`
)

// MembershipRepository reads and writes memberships and platform-agent
// assignments in postgres.
type MembershipRepository struct {
	pool *pgxpool.Pool
}

func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool}
}

func (r *MembershipRepository) LookupMembership(ctx context.Context, userID domain.UserID) (*domain.Membership, error) {
	var (
		m       domain.Membership
		rawRole string
	)
	err := r.pool.QueryRow(ctx, selectMembershipSQL, userID.UUID).
		Scan(&m.OrganizationID.UUID, &m.UserID.UUID, &rawRole, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	m.Role = role
	return &m, nil
}

func (r *MembershipRepository) LookupAgentAssignments(ctx context.Context, userID domain.UserID) ([]domain.OrganizationID, error) {
	rows, err := r.pool.Query(ctx, selectAgentAssignmentsSQL, userID.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.OrganizationID{}
	for rows.Next() {
		var id domain.OrganizationID
		if err := rows.Scan(&id.UUID); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *MembershipRepository) AddMembership(ctx context.Context, m *domain.Membership) error {
	_, err := r.pool.Exec(ctx, insertMembershipSQL,
		m.OrganizationID.UUID, m.UserID.UUID, m.Role.String(), m.CreatedAt)
	return err
}

func (r *MembershipRepository) RemoveMembership(ctx context.Context, orgID domain.OrganizationID, userID domain.UserID) error {
	_, err := r.pool.Exec(ctx, deleteMembershipSQL, orgID.UUID, userID.UUID)
	return err
}

var _ ports.MembershipStore = (*MembershipRepository)(nil)
