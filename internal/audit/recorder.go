package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Recorder writes operation and login records. Callers pass the same
// queryable that carries the paired mutation so both commit or roll
// back together; a nil queryable falls back to the pool for writes
// that stand alone.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder returns a Recorder backed by the given pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record appends one operation entry describing an administrative
// mutation. Reason should name the action verb, entity type, and a
// human-readable identifier, e.g. `added tag «Action»`.
func (r *Recorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	if r == nil {
		return errors.New("audit: recorder not initialised")
	}
	if adminID == 0 || reason == "" {
		return errors.New("audit: entry requires admin id and reason")
	}
	if q == nil {
		q = r.pool
	}
	_, err := q.Exec(ctx,
		`INSERT INTO audit_entries (admin_id, ip, reason) VALUES ($1, $2, $3)`,
		adminID, ip, reason)
	return err
}

// RecordAdminLogin appends an administrator login record.
func (r *Recorder) RecordAdminLogin(ctx context.Context, q db.Queryable, adminID int64, ip string) error {
	if q == nil {
		q = r.pool
	}
	_, err := q.Exec(ctx,
		`INSERT INTO admin_logins (admin_id, ip) VALUES ($1, $2)`,
		adminID, ip)
	return err
}

// RecordMemberLogin appends a member login record.
func (r *Recorder) RecordMemberLogin(ctx context.Context, q db.Queryable, memberID int64, ip string) error {
	if q == nil {
		q = r.pool
	}
	_, err := q.Exec(ctx,
		`INSERT INTO member_logins (member_id, ip) VALUES ($1, $2)`,
		memberID, ip)
	return err
}
