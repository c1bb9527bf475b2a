package admins

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Repository persists administrator accounts.
type Repository interface {
	List(ctx context.Context, page, pageSize int) ([]Admin, int, error)
	Get(ctx context.Context, id int64) (Admin, error)
	Create(ctx context.Context, q db.Queryable, name, passwordHash string, roleID int64) (Admin, error)
	SetRole(ctx context.Context, q db.Queryable, id, roleID int64) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns one page of administrators, newest first, with role
// names joined in.
func (r *PGRepository) List(ctx context.Context, page, pageSize int) ([]Admin, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.name, a.is_super, a.role_id, COALESCE(r.name, ''), a.created_at
		FROM admins a
		LEFT JOIN roles r ON r.id = a.role_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var admins []Admin
	for rows.Next() {
		var a Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.IsSuper, &a.RoleID, &a.RoleName, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		admins = append(admins, a)
	}
	return admins, total, rows.Err()
}

// Get fetches one administrator.
func (r *PGRepository) Get(ctx context.Context, id int64) (Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT a.id, a.name, a.is_super, a.role_id, COALESCE(r.name, ''), a.created_at
		FROM admins a
		LEFT JOIN roles r ON r.id = a.role_id
		WHERE a.id = $1`, id).
		Scan(&a.ID, &a.Name, &a.IsSuper, &a.RoleID, &a.RoleName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, err
	}
	return a, nil
}

// Create inserts an administrator account.
func (r *PGRepository) Create(ctx context.Context, q db.Queryable, name, passwordHash string, roleID int64) (Admin, error) {
	if q == nil {
		q = r.pool
	}
	var a Admin
	err := q.QueryRow(ctx, `
		INSERT INTO admins (name, password_hash, is_super, role_id)
		VALUES ($1, $2, FALSE, $3)
		RETURNING id, name, is_super, role_id, created_at`,
		name, passwordHash, roleID).
		Scan(&a.ID, &a.Name, &a.IsSuper, &a.RoleID, &a.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Admin{}, ErrDuplicate
		}
		return Admin{}, err
	}
	return a, nil
}

// SetRole reassigns an administrator to a different role.
func (r *PGRepository) SetRole(ctx context.Context, q db.Queryable, id, roleID int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `UPDATE admins SET role_id = $2 WHERE id = $1`, id, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
