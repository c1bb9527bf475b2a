package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentReconcileJob resynchronises the denormalised comment counter
// on movies with the actual comment rows. The counter is maintained
// transactionally on every write; this job repairs drift after manual
// data surgery or partial restores.
type CommentReconcileJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewCommentReconcileJob constructs a CommentReconcileJob.
func NewCommentReconcileJob(pool *pgxpool.Pool, logger *slog.Logger) *CommentReconcileJob {
	return &CommentReconcileJob{pool: pool, logger: logger}
}

// Handle processes TaskCommentReconcile tasks.
func (j *CommentReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CommentReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	query := `
		UPDATE movies m SET comment_count = sub.cnt
		FROM (
			SELECT mv.id, COUNT(c.id) AS cnt
			FROM movies mv
			LEFT JOIN comments c ON c.movie_id = mv.id
			GROUP BY mv.id
		) sub
		WHERE sub.id = m.id AND m.comment_count <> sub.cnt`
	args := []any{}
	if payload.MovieID != 0 {
		query += ` AND m.id = $1`
		args = append(args, payload.MovieID)
	}

	tag, err := j.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if j.logger != nil && tag.RowsAffected() > 0 {
		j.logger.Info("reconciled comment counters", slog.Int64("movies", tag.RowsAffected()))
	}
	return nil
}
