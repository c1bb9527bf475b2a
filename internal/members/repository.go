package members

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Repository persists member accounts.
type Repository interface {
	List(ctx context.Context, page, pageSize int) ([]Member, int, error)
	Get(ctx context.Context, id int64) (Member, error)
	FindByName(ctx context.Context, name string) (Member, error)
	Create(ctx context.Context, m Member) (Member, error)
	UpdateProfile(ctx context.Context, m Member) (Member, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
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

const memberColumns = `id, uuid, name, email, phone, info, face, password_hash, created_at`

// List returns one page of members, newest first.
func (r *PGRepository) List(ctx context.Context, page, pageSize int) ([]Member, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+` FROM members
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Get fetches one member.
func (r *PGRepository) Get(ctx context.Context, id int64) (Member, error) {
	return r.one(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

// FindByName fetches a member by login name.
func (r *PGRepository) FindByName(ctx context.Context, name string) (Member, error) {
	return r.one(r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE name = $1`, name))
}

// Create inserts a member account.
func (r *PGRepository) Create(ctx context.Context, m Member) (Member, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO members (uuid, name, email, phone, info, face, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		m.UUID, m.Name, m.Email, m.Phone, m.Info, m.Face, m.PasswordHash).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Member{}, ErrDuplicate
		}
		return Member{}, err
	}
	return m, nil
}

// UpdateProfile edits the member's own fields. An empty face keeps the
// stored avatar.
func (r *PGRepository) UpdateProfile(ctx context.Context, m Member) (Member, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE members SET
			name = $2, email = $3, phone = $4, info = $5,
			face = COALESCE(NULLIF($6, ''), face)
		WHERE id = $1
		RETURNING uuid, face, password_hash, created_at`,
		m.ID, m.Name, m.Email, m.Phone, m.Info, m.Face).
		Scan(&m.UUID, &m.Face, &m.PasswordHash, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Member{}, ErrDuplicate
		}
		return Member{}, err
	}
	return m, nil
}

// UpdatePassword replaces the stored password verifier.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE members SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a member account.
func (r *PGRepository) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = r.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) one(row pgx.Row) (Member, error) {
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.UUID, &m.Name, &m.Email, &m.Phone, &m.Info, &m.Face,
		&m.PasswordHash, &m.CreatedAt)
	return m, err
}

var _ Repository = (*PGRepository)(nil)
