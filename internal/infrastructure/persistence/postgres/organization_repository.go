package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
)

const (
	selectOrgByIDSQL = `
SELECT id, name, org_type, active, created_at, updated_at
FROM organizations WHERE id = $1;`

	selectActiveOrgsSQL = `
SELECT id, name, org_type, active, created_at, updated_at
FROM organizations WHERE active ORDER BY name;`

	selectActiveOrgsByIDsSQL = `
SELECT id, name, org_type, active, created_at, updated_at
FROM organizations WHERE active AND id = ANY($1) ORDER BY name;`

	updateOrgSQL = `
UPDATE organizations SET name = $2, active = $3, updated_at = $4 WHERE id = $1;`
)

// OrganizationRepository persists organizations in postgres.
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, orgID domain.OrganizationID) (*domain.Organization, error) {
	org, err := scanOrganization(r.pool.QueryRow(ctx, selectOrgByIDSQL, orgID.UUID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

func (r *OrganizationRepository) ListActive(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx, selectActiveOrgsSQL)
	if err != nil {
		return nil, err
	}
	return collectOrganizations(rows)
}

func (r *OrganizationRepository) ListActiveByIDs(ctx context.Context, orgIDs []domain.OrganizationID) ([]*domain.Organization, error) {
	if len(orgIDs) == 0 {
		return []*domain.Organization{}, nil
	}
	ids := make([]uuid.UUID, 0, len(orgIDs))
	for _, id := range orgIDs {
		ids = append(ids, id.UUID)
	}
	rows, err := r.pool.Query(ctx, selectActiveOrgsByIDsSQL, ids)
	if err != nil {
		return nil, err
	}
	return collectOrganizations(rows)
}

func (r *OrganizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	_, err := r.pool.Exec(ctx, updateOrgSQL, org.ID.UUID, org.Name, org.Active, org.UpdatedAt)
	return err
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var (
		o       domain.Organization
		rawType string
	)
	if err := row.Scan(&o.ID.UUID, &o.Name, &rawType, &o.Active, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	orgType, err := domain.ParseOrganizationType(rawType)
	if err != nil {
		return nil, err
	}
	o.Type = orgType
	return &o, nil
}

func collectOrganizations(rows pgx.Rows) ([]*domain.Organization, error) {
	defer rows.Close()
	out := []*domain.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ ports.OrganizationRepository = (*OrganizationRepository)(nil)
