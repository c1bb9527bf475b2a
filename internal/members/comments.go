package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// CommentRepository persists comments. Add and Delete keep the movie's
// comment counter in step on the same queryable.
type CommentRepository interface {
	Add(ctx context.Context, q db.Queryable, movieID, memberID int64, text string) (Comment, error)
	Get(ctx context.Context, id int64) (Comment, error)
	ListByMovie(ctx context.Context, movieID int64, page, pageSize int) ([]Comment, int, error)
	ListByMember(ctx context.Context, memberID int64, page, pageSize int) ([]Comment, int, error)
	ListAll(ctx context.Context, page, pageSize int) ([]Comment, int, error)
	Delete(ctx context.Context, q db.Queryable, id int64) error
}

// PGCommentRepository implements CommentRepository on PostgreSQL.
type PGCommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository constructs a PostgreSQL comment repository.
func NewCommentRepository(pool *pgxpool.Pool) *PGCommentRepository {
	return &PGCommentRepository{pool: pool}
}

const commentColumns = `c.id, c.movie_id, c.member_id, COALESCE(mv.title, ''), COALESCE(mb.name, ''), c.text, c.created_at`

const commentJoins = `
	FROM comments c
	LEFT JOIN movies mv ON mv.id = c.movie_id
	LEFT JOIN members mb ON mb.id = c.member_id`

// Add inserts a comment and bumps the movie's comment counter.
func (r *PGCommentRepository) Add(ctx context.Context, q db.Queryable, movieID, memberID int64, text string) (Comment, error) {
	if q == nil {
		q = r.pool
	}
	var c Comment
	err := q.QueryRow(ctx, `
		INSERT INTO comments (movie_id, member_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, movie_id, member_id, text, created_at`,
		movieID, memberID, text).
		Scan(&c.ID, &c.MovieID, &c.MemberID, &c.Text, &c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	_, err = q.Exec(ctx,
		`UPDATE movies SET comment_count = comment_count + 1 WHERE id = $1`, movieID)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Get fetches one comment with its joins.
func (r *PGCommentRepository) Get(ctx context.Context, id int64) (Comment, error) {
	var c Comment
	err := r.pool.QueryRow(ctx,
		`SELECT `+commentColumns+commentJoins+` WHERE c.id = $1`, id).
		Scan(&c.ID, &c.MovieID, &c.MemberID, &c.MovieTitle, &c.MemberName, &c.Text, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	return c, nil
}

// ListByMovie returns one page of a movie's comments, newest first.
func (r *PGCommentRepository) ListByMovie(ctx context.Context, movieID int64, page, pageSize int) ([]Comment, int, error) {
	return r.list(ctx, "WHERE c.movie_id = $1", []any{movieID}, page, pageSize)
}

// ListByMember returns one page of a member's comments, newest first.
func (r *PGCommentRepository) ListByMember(ctx context.Context, memberID int64, page, pageSize int) ([]Comment, int, error) {
	return r.list(ctx, "WHERE c.member_id = $1", []any{memberID}, page, pageSize)
}

// ListAll returns one page of all comments for moderation.
func (r *PGCommentRepository) ListAll(ctx context.Context, page, pageSize int) ([]Comment, int, error) {
	return r.list(ctx, "", nil, page, pageSize)
}

// Delete removes a comment and decrements the movie's counter.
func (r *PGCommentRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	var movieID int64
	err := q.QueryRow(ctx,
		`DELETE FROM comments WHERE id = $1 RETURNING movie_id`, id).Scan(&movieID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err = q.Exec(ctx,
		`UPDATE movies SET comment_count = GREATEST(comment_count - 1, 0) WHERE id = $1`, movieID)
	return err
}

func (r *PGCommentRepository) list(ctx context.Context, where string, args []any, page, pageSize int) ([]Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM comments c "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	limitPos := len(args) - 1
	query := `SELECT ` + commentColumns + commentJoins + `
		` + where + `
		ORDER BY c.created_at DESC, c.id DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.MovieID, &c.MemberID, &c.MovieTitle, &c.MemberName, &c.Text, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

var _ CommentRepository = (*PGCommentRepository)(nil)
