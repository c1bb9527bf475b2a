package tags

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Repository persists tags.
type Repository interface {
	List(ctx context.Context, page, pageSize int) ([]Tag, int, error)
	All(ctx context.Context) ([]Tag, error)
	Get(ctx context.Context, id int64) (Tag, error)
	Create(ctx context.Context, q db.Queryable, name string) (Tag, error)
	Rename(ctx context.Context, q db.Queryable, id int64, name string) (Tag, error)
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

// List returns one page of tags, newest first.
func (r *PGRepository) List(ctx context.Context, page, pageSize int) ([]Tag, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tags`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at FROM tags
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tags, err := collect(rows)
	return tags, total, err
}

// All returns every tag ordered by name, for select inputs.
func (r *PGRepository) All(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Get fetches one tag.
func (r *PGRepository) Get(ctx context.Context, id int64) (Tag, error) {
	var t Tag
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		return Tag{}, err
	}
	return t, nil
}

// Create inserts a tag.
func (r *PGRepository) Create(ctx context.Context, q db.Queryable, name string) (Tag, error) {
	if q == nil {
		q = r.pool
	}
	var t Tag
	err := q.QueryRow(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		RETURNING id, name, created_at`, name).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Tag{}, ErrDuplicate
		}
		return Tag{}, err
	}
	return t, nil
}

// Rename updates a tag's name.
func (r *PGRepository) Rename(ctx context.Context, q db.Queryable, id int64, name string) (Tag, error) {
	if q == nil {
		q = r.pool
	}
	var t Tag
	err := q.QueryRow(ctx, `
		UPDATE tags SET name = $2 WHERE id = $1
		RETURNING id, name, created_at`, id, name).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tag{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Tag{}, ErrDuplicate
		}
		return Tag{}, err
	}
	return t, nil
}

// Delete removes a tag.
func (r *PGRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]Tag, error) {
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
