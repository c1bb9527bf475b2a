package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// FavoriteRepository persists favorite marks.
type FavoriteRepository interface {
	Add(ctx context.Context, memberID, movieID int64) (Favorite, bool, error)
	ListByMember(ctx context.Context, memberID int64, page, pageSize int) ([]Favorite, int, error)
	ListAll(ctx context.Context, page, pageSize int) ([]Favorite, int, error)
	Remove(ctx context.Context, memberID, movieID int64) error
	Delete(ctx context.Context, q db.Queryable, id int64) error
}

// PGFavoriteRepository implements FavoriteRepository on PostgreSQL.
type PGFavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository constructs a PostgreSQL favorite repository.
func NewFavoriteRepository(pool *pgxpool.Pool) *PGFavoriteRepository {
	return &PGFavoriteRepository{pool: pool}
}

const favoriteColumns = `f.id, f.movie_id, f.member_id, COALESCE(mv.title, ''), COALESCE(mb.name, ''), f.created_at`

const favoriteJoins = `
	FROM favorites f
	LEFT JOIN movies mv ON mv.id = f.movie_id
	LEFT JOIN members mb ON mb.id = f.member_id`

// Add marks a movie as a favorite. Repeating the mark is not an error;
// the second return reports whether a new row was created.
func (r *PGFavoriteRepository) Add(ctx context.Context, memberID, movieID int64) (Favorite, bool, error) {
	var f Favorite
	err := r.pool.QueryRow(ctx, `
		INSERT INTO favorites (member_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT (member_id, movie_id) DO NOTHING
		RETURNING id, movie_id, member_id, created_at`,
		memberID, movieID).
		Scan(&f.ID, &f.MovieID, &f.MemberID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.existing(ctx, memberID, movieID)
		}
		return Favorite{}, false, err
	}
	return f, true, nil
}

func (r *PGFavoriteRepository) existing(ctx context.Context, memberID, movieID int64) (Favorite, bool, error) {
	var f Favorite
	err := r.pool.QueryRow(ctx, `
		SELECT id, movie_id, member_id, created_at FROM favorites
		WHERE member_id = $1 AND movie_id = $2`, memberID, movieID).
		Scan(&f.ID, &f.MovieID, &f.MemberID, &f.CreatedAt)
	if err != nil {
		return Favorite{}, false, err
	}
	return f, false, nil
}

// ListByMember returns one page of a member's favorites, newest first.
func (r *PGFavoriteRepository) ListByMember(ctx context.Context, memberID int64, page, pageSize int) ([]Favorite, int, error) {
	return r.list(ctx, "WHERE f.member_id = $1", []any{memberID}, page, pageSize)
}

// ListAll returns one page of all favorites for moderation.
func (r *PGFavoriteRepository) ListAll(ctx context.Context, page, pageSize int) ([]Favorite, int, error) {
	return r.list(ctx, "", nil, page, pageSize)
}

// Remove unmarks a member's favorite. Missing rows are not an error.
func (r *PGFavoriteRepository) Remove(ctx context.Context, memberID, movieID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE member_id = $1 AND movie_id = $2`, memberID, movieID)
	return err
}

// Delete removes a favorite row by id.
func (r *PGFavoriteRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGFavoriteRepository) list(ctx context.Context, where string, args []any, page, pageSize int) ([]Favorite, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM favorites f "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	limitPos := len(args) - 1
	query := `SELECT ` + favoriteColumns + favoriteJoins + `
		` + where + `
		ORDER BY f.created_at DESC, f.id DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.MovieID, &f.MemberID, &f.MovieTitle, &f.MemberName, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

var _ FavoriteRepository = (*PGFavoriteRepository)(nil)
