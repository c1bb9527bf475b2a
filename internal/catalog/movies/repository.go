package movies

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Repository persists movies.
type Repository interface {
	List(ctx context.Context, f Filters, page, pageSize int) ([]Movie, int, error)
	Get(ctx context.Context, id int64) (Movie, error)
	Create(ctx context.Context, q db.Queryable, m Movie) (Movie, error)
	Update(ctx context.Context, q db.Queryable, m Movie) (Movie, error)
	Delete(ctx context.Context, q db.Queryable, id int64) error
	BumpPlayCount(ctx context.Context, id int64) error
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const movieColumns = `m.id, m.title, m.url, m.info, m.logo, m.star, m.play_count,
	m.comment_count, m.tag_id, COALESCE(t.name, ''), m.area, m.release_date, m.length, m.created_at`

// List returns one page of movies matching the filters, newest first.
func (r *PGRepository) List(ctx context.Context, f Filters, page, pageSize int) ([]Movie, int, error) {
	where, args := buildFilter(f)

	var total int
	countSQL := `SELECT COUNT(*) FROM movies m` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitPos := len(args) + 1
	listSQL := fmt.Sprintf(`
		SELECT %s
		FROM movies m
		LEFT JOIN tags t ON t.id = m.tag_id
		%s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $%d OFFSET $%d`, movieColumns, where, limitPos, limitPos+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Get fetches one movie with its tag name.
func (r *PGRepository) Get(ctx context.Context, id int64) (Movie, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM movies m
		LEFT JOIN tags t ON t.id = m.tag_id
		WHERE m.id = $1`, movieColumns), id)
	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movie{}, ErrNotFound
		}
		return Movie{}, err
	}
	return m, nil
}

// Create inserts a movie.
func (r *PGRepository) Create(ctx context.Context, q db.Queryable, m Movie) (Movie, error) {
	if q == nil {
		q = r.pool
	}
	err := q.QueryRow(ctx, `
		INSERT INTO movies (title, url, info, logo, star, tag_id, area, release_date, length)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, play_count, comment_count, created_at`,
		m.Title, m.URL, m.Info, m.Logo, m.Star, m.TagID, m.Area, m.ReleaseDate, m.Length).
		Scan(&m.ID, &m.PlayCount, &m.CommentCount, &m.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Movie{}, ErrDuplicate
		}
		return Movie{}, err
	}
	return m, nil
}

// Update replaces a movie's editable fields. URL and Logo are written
// only when non-empty so edits without re-upload keep the stored files.
func (r *PGRepository) Update(ctx context.Context, q db.Queryable, m Movie) (Movie, error) {
	if q == nil {
		q = r.pool
	}
	err := q.QueryRow(ctx, `
		UPDATE movies SET
			title = $2, info = $3, star = $4, tag_id = $5,
			area = $6, release_date = $7, length = $8,
			url = COALESCE(NULLIF($9, ''), url),
			logo = COALESCE(NULLIF($10, ''), logo)
		WHERE id = $1
		RETURNING url, logo, play_count, comment_count, created_at`,
		m.ID, m.Title, m.Info, m.Star, m.TagID, m.Area, m.ReleaseDate, m.Length, m.URL, m.Logo).
		Scan(&m.URL, &m.Logo, &m.PlayCount, &m.CommentCount, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movie{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Movie{}, ErrDuplicate
		}
		return Movie{}, err
	}
	return m, nil
}

// Delete removes a movie.
func (r *PGRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpPlayCount increments the view counter.
func (r *PGRepository) BumpPlayCount(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE movies SET play_count = play_count + 1 WHERE id = $1`, id)
	return err
}

func buildFilter(f Filters) (string, []any) {
	var conds []string
	var args []any
	if f.TagID > 0 {
		args = append(args, f.TagID)
		conds = append(conds, fmt.Sprintf("m.tag_id = $%d", len(args)))
	}
	if f.Star > 0 {
		args = append(args, f.Star)
		conds = append(conds, fmt.Sprintf("m.star = $%d", len(args)))
	}
	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		conds = append(conds, fmt.Sprintf("m.title ILIKE $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanMovie(row pgx.Row) (Movie, error) {
	var m Movie
	err := row.Scan(&m.ID, &m.Title, &m.URL, &m.Info, &m.Logo, &m.Star, &m.PlayCount,
		&m.CommentCount, &m.TagID, &m.TagName, &m.Area, &m.ReleaseDate, &m.Length, &m.CreatedAt)
	if err != nil {
		return Movie{}, err
	}
	return m, nil
}

var _ Repository = (*PGRepository)(nil)
