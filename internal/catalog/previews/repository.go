package previews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Repository persists previews.
type Repository interface {
	List(ctx context.Context, page, pageSize int) ([]Preview, int, error)
	Get(ctx context.Context, id int64) (Preview, error)
	Create(ctx context.Context, q db.Queryable, title, logo string) (Preview, error)
	Update(ctx context.Context, q db.Queryable, id int64, title, logo string) (Preview, error)
	Delete(ctx context.Context, q db.Queryable, id int64) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns one page of previews, newest first.
func (r *PGRepository) List(ctx context.Context, page, pageSize int) ([]Preview, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM previews`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, title, logo, created_at FROM previews
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Preview
	for rows.Next() {
		var p Preview
		if err := rows.Scan(&p.ID, &p.Title, &p.Logo, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Get fetches one preview.
func (r *PGRepository) Get(ctx context.Context, id int64) (Preview, error) {
	var p Preview
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, logo, created_at FROM previews WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Logo, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preview{}, ErrNotFound
		}
		return Preview{}, err
	}
	return p, nil
}

// Create inserts a preview.
func (r *PGRepository) Create(ctx context.Context, q db.Queryable, title, logo string) (Preview, error) {
	if q == nil {
		q = r.pool
	}
	var p Preview
	err := q.QueryRow(ctx, `
		INSERT INTO previews (title, logo) VALUES ($1, $2)
		RETURNING id, title, logo, created_at`, title, logo).
		Scan(&p.ID, &p.Title, &p.Logo, &p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Preview{}, ErrDuplicate
		}
		return Preview{}, err
	}
	return p, nil
}

// Update edits a preview. An empty logo keeps the stored file.
func (r *PGRepository) Update(ctx context.Context, q db.Queryable, id int64, title, logo string) (Preview, error) {
	if q == nil {
		q = r.pool
	}
	var p Preview
	err := q.QueryRow(ctx, `
		UPDATE previews SET title = $2, logo = COALESCE(NULLIF($3, ''), logo)
		WHERE id = $1
		RETURNING id, title, logo, created_at`, id, title, logo).
		Scan(&p.ID, &p.Title, &p.Logo, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preview{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Preview{}, ErrDuplicate
		}
		return Preview{}, err
	}
	return p, nil
}

// Delete removes a preview.
func (r *PGRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM previews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
