package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Store defines persistence operations for permissions and roles.
type Store interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	GetPermissionByRoute(ctx context.Context, route string) (Permission, error)
	CreatePermission(ctx context.Context, q db.Queryable, name, route string) (Permission, error)
	UpdatePermission(ctx context.Context, q db.Queryable, id int64, name, route string) (Permission, error)
	DeletePermission(ctx context.Context, q db.Queryable, id int64) error

	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, q db.Queryable, name string, permissionIDs []int64) (Role, error)
	UpdateRole(ctx context.Context, q db.Queryable, id int64, name string, permissionIDs []int64) (Role, error)
	DeleteRole(ctx context.Context, q db.Queryable, id int64) error

	// RoleIDForAdmin resolves the role assigned to an administrator.
	RoleIDForAdmin(ctx context.Context, adminID int64) (int64, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Pool exposes the underlying pool for transactional composition.
func (s *PGStore) Pool() *pgxpool.Pool {
	return s.pool
}

// ListPermissions returns all permissions ordered by id.
func (s *PGStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, route, created_at FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Route, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission fetches one permission by id.
func (s *PGStore) GetPermission(ctx context.Context, id int64) (Permission, error) {
	return s.scanPermission(s.pool.QueryRow(ctx,
		`SELECT id, name, route, created_at FROM permissions WHERE id = $1`, id))
}

// GetPermissionByRoute resolves a canonical route key to its permission.
func (s *PGStore) GetPermissionByRoute(ctx context.Context, route string) (Permission, error) {
	return s.scanPermission(s.pool.QueryRow(ctx,
		`SELECT id, name, route, created_at FROM permissions WHERE route = $1`, route))
}

// CreatePermission inserts a permission row.
func (s *PGStore) CreatePermission(ctx context.Context, q db.Queryable, name, route string) (Permission, error) {
	if q == nil {
		q = s.pool
	}
	row := q.QueryRow(ctx,
		`INSERT INTO permissions (name, route) VALUES ($1, $2) RETURNING id, name, route, created_at`,
		name, route)
	p, err := s.scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, ErrDuplicate
		}
		return Permission{}, err
	}
	return p, nil
}

// UpdatePermission renames a permission or rebinds its route key.
func (s *PGStore) UpdatePermission(ctx context.Context, q db.Queryable, id int64, name, route string) (Permission, error) {
	if q == nil {
		q = s.pool
	}
	row := q.QueryRow(ctx,
		`UPDATE permissions SET name = $2, route = $3 WHERE id = $1 RETURNING id, name, route, created_at`,
		id, name, route)
	p, err := s.scanPermission(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Permission{}, ErrDuplicate
		}
		return Permission{}, err
	}
	return p, nil
}

// DeletePermission removes a permission. Role references are left in
// place; they resolve to nothing and therefore deny.
func (s *PGStore) DeletePermission(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRoles returns all roles with their permission id sets.
func (s *PGStore) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.created_at,
		       COALESCE(array_agg(rp.permission_id ORDER BY rp.permission_id)
		                FILTER (WHERE rp.permission_id IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		GROUP BY r.id
		ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.PermissionIDs); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetRole fetches one role and its permission id set.
func (s *PGStore) GetRole(ctx context.Context, id int64) (Role, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.created_at,
		       COALESCE(array_agg(rp.permission_id ORDER BY rp.permission_id)
		                FILTER (WHERE rp.permission_id IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		WHERE r.id = $1
		GROUP BY r.id`, id)

	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.PermissionIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return r, nil
}

// CreateRole inserts a role and its permission set.
func (s *PGStore) CreateRole(ctx context.Context, q db.Queryable, name string, permissionIDs []int64) (Role, error) {
	if q == nil {
		q = s.pool
	}
	var r Role
	err := q.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id, name, created_at`,
		name).Scan(&r.ID, &r.Name, &r.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, ErrDuplicate
		}
		return Role{}, err
	}
	if err := s.replaceRolePermissions(ctx, q, r.ID, permissionIDs); err != nil {
		return Role{}, err
	}
	r.PermissionIDs = dedupe(permissionIDs)
	return r, nil
}

// UpdateRole renames a role and replaces its permission set.
func (s *PGStore) UpdateRole(ctx context.Context, q db.Queryable, id int64, name string, permissionIDs []int64) (Role, error) {
	if q == nil {
		q = s.pool
	}
	var r Role
	err := q.QueryRow(ctx,
		`UPDATE roles SET name = $2 WHERE id = $1 RETURNING id, name, created_at`,
		id, name).Scan(&r.ID, &r.Name, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return Role{}, ErrDuplicate
		}
		return Role{}, err
	}
	if err := s.replaceRolePermissions(ctx, q, id, permissionIDs); err != nil {
		return Role{}, err
	}
	r.PermissionIDs = dedupe(permissionIDs)
	return r, nil
}

// DeleteRole removes a role and its permission assignments.
func (s *PGStore) DeleteRole(ctx context.Context, q db.Queryable, id int64) error {
	if q == nil {
		q = s.pool
	}
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleIDForAdmin resolves the role currently assigned to an admin.
func (s *PGStore) RoleIDForAdmin(ctx context.Context, adminID int64) (int64, error) {
	var roleID int64
	err := s.pool.QueryRow(ctx, `SELECT role_id FROM admins WHERE id = $1`, adminID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return roleID, nil
}

func (s *PGStore) replaceRolePermissions(ctx context.Context, q db.Queryable, roleID int64, permissionIDs []int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, pid := range dedupe(permissionIDs) {
		if _, err := q.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			roleID, pid); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Name, &p.Route, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ Store = (*PGStore)(nil)
