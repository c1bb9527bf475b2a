package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListEntries returns one page of operation entries, newest first.
func (r *PGRepository) ListEntries(ctx context.Context, f Filters) ([]Entry, int, error) {
	where := ""
	args := []any{}
	if f.AdminID != 0 {
		where = "WHERE e.admin_id = $1"
		args = append(args, f.AdminID)
	}

	var total int
	countArgs := args
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM audit_entries e "+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.PageSize
	args = append(args, f.PageSize, offset)
	limitPos := len(args) - 1
	query := `
		SELECT e.id, e.admin_id, COALESCE(a.name, ''), e.ip, e.reason, e.created_at
		FROM audit_entries e
		LEFT JOIN admins a ON a.id = e.admin_id
		` + where + `
		ORDER BY e.created_at DESC, e.id DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.AdminName, &e.IP, &e.Reason, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ListAdminLogins returns one page of admin login records, newest first.
func (r *PGRepository) ListAdminLogins(ctx context.Context, f Filters) ([]AdminLogin, int, error) {
	where := ""
	args := []any{}
	if f.AdminID != 0 {
		where = "WHERE l.admin_id = $1"
		args = append(args, f.AdminID)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM admin_logins l "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.PageSize
	args = append(args, f.PageSize, offset)
	limitPos := len(args) - 1
	query := `
		SELECT l.id, l.admin_id, COALESCE(a.name, ''), l.ip, l.created_at
		FROM admin_logins l
		LEFT JOIN admins a ON a.id = l.admin_id
		` + where + `
		ORDER BY l.created_at DESC, l.id DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logins []AdminLogin
	for rows.Next() {
		var l AdminLogin
		if err := rows.Scan(&l.ID, &l.AdminID, &l.AdminName, &l.IP, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		logins = append(logins, l)
	}
	return logins, total, rows.Err()
}

// ListMemberLogins returns one page of member login records, newest
// first, optionally restricted to one member.
func (r *PGRepository) ListMemberLogins(ctx context.Context, memberID int64, page, pageSize int) ([]MemberLogin, int, error) {
	where := ""
	args := []any{}
	if memberID != 0 {
		where = "WHERE l.member_id = $1"
		args = append(args, memberID)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM member_logins l "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	limitPos := len(args) - 1
	query := `
		SELECT l.id, l.member_id, COALESCE(m.name, ''), l.ip, l.created_at
		FROM member_logins l
		LEFT JOIN members m ON m.id = l.member_id
		` + where + `
		ORDER BY l.created_at DESC, l.id DESC
		` + fmt.Sprintf("LIMIT $%d OFFSET $%d", limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logins []MemberLogin
	for rows.Next() {
		var l MemberLogin
		if err := rows.Scan(&l.ID, &l.MemberID, &l.MemberName, &l.IP, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		logins = append(logins, l)
	}
	return logins, total, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
