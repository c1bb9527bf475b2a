package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByName(ctx context.Context, name string) (*Admin, error)
	FindByID(ctx context.Context, id int64) (*Admin, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByName fetches an administrator by login name.
func (r *PGRepository) FindByName(ctx context.Context, name string) (*Admin, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, password_hash, is_super, role_id, created_at FROM admins WHERE name = $1`, name))
}

// FindByID fetches an administrator by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Admin, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, password_hash, is_super, role_id, created_at FROM admins WHERE id = $1`, id))
}

// UpdatePassword replaces the stored password verifier.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) scan(row pgx.Row) (*Admin, error) {
	var a Admin
	err := row.Scan(&a.ID, &a.Name, &a.PasswordHash, &a.IsSuper, &a.RoleID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ Repository = (*PGRepository)(nil)
