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
	insertUserSQL = `
INSERT INTO users (id, email, first_name, last_name, password_hash, banned, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	selectUserByIDSQL = `
SELECT id, email, first_name, last_name, password_hash, banned, created_at, updated_at
FROM users WHERE id = $1;`

	selectUserByEmailSQL = `
SELECT id, email, first_name, last_name, password_hash, banned, created_at, updated_at
FROM users WHERE email = $1;`

	selectUsersByOrgsSQL = `
SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.banned, u.created_at, u.updated_at
FROM users u
JOIN memberships m ON m.user_id = u.id
WHERE m.organization_id = ANY($1)
ORDER BY u.created_at
LIMIT $2 OFFSET $3;`

	updateUserSQL = `
UPDATE users SET email = $2, first_name = $3, last_name = $4, updated_at = $5
WHERE id = $1;`

	updateUserBannedSQL = `
UPDATE users SET banned = $2, updated_at = NOW() WHERE id = $1;`

	deleteUserSQL = `
DELETE FROM users WHERE id = $1;`
)

// UserRepository persists users in postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, insertUserSQL,
		user.ID.UUID, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.Banned, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUserByIDSQL, userID.UUID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectUserByEmailSQL, email))
}

func (r *UserRepository) List(ctx context.Context, orgIDs []domain.OrganizationID, limit, offset int) ([]*domain.User, error) {
	if len(orgIDs) == 0 {
		return []*domain.User{}, nil
	}
	ids := make([]uuid.UUID, 0, len(orgIDs))
	for _, id := range orgIDs {
		ids = append(ids, id.UUID)
	}
	rows, err := r.pool.Query(ctx, selectUsersByOrgsSQL, ids, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, updateUserSQL,
		user.ID.UUID, user.Email, user.FirstName, user.LastName, user.UpdatedAt)
	return err
}

func (r *UserRepository) SetBanned(ctx context.Context, userID domain.UserID, banned bool) error {
	_, err := r.pool.Exec(ctx, updateUserBannedSQL, userID.UUID, banned)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, userID domain.UserID) error {
	_, err := r.pool.Exec(ctx, deleteUserSQL, userID.UUID)
	return err
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID.UUID, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Banned, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
