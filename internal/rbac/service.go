package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
)

// Actor identifies the administrator performing a mutation, for the
// audit trail.
type Actor struct {
	AdminID int64
	IP      string
}

// Recorder appends an audit entry on the same queryable as the
// mutation it describes.
type Recorder interface {
	Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error
}

// Service orchestrates the permission registry and role management.
// Every mutation and its audit entry commit as one transaction.
type Service struct {
	store Store
	pool  *pgxpool.Pool
	audit Recorder
}

// NewService constructs a Service.
func NewService(store Store, pool *pgxpool.Pool, audit Recorder) *Service {
	return &Service{store: store, pool: pool, audit: audit}
}

// ListPermissions returns the registry ordered by id.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// ResolveRoute maps a canonical route key to its permission.
func (s *Service) ResolveRoute(ctx context.Context, routeKey string) (Permission, error) {
	return s.store.GetPermissionByRoute(ctx, routeKey)
}

// CreatePermission registers a new capability bound to a route key.
func (s *Service) CreatePermission(ctx context.Context, actor Actor, name, route string) (Permission, error) {
	name = strings.TrimSpace(name)
	route = strings.TrimSpace(route)
	if name == "" || route == "" {
		return Permission{}, fmt.Errorf("rbac: permission name and route required")
	}
	var created Permission
	err := s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.store.CreatePermission(ctx, q, name, route)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added permission «%s»", name))
	})
	if err != nil {
		return Permission{}, err
	}
	return created, nil
}

// UpdatePermission renames a permission or rebinds its route key.
func (s *Service) UpdatePermission(ctx context.Context, actor Actor, id int64, name, route string) (Permission, error) {
	name = strings.TrimSpace(name)
	route = strings.TrimSpace(route)
	if name == "" || route == "" {
		return Permission{}, fmt.Errorf("rbac: permission name and route required")
	}
	prev, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	var updated Permission
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		updated, err = s.store.UpdatePermission(ctx, q, id, name, route)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed permission «%s» to «%s»", prev.Name, name))
	})
	if err != nil {
		return Permission{}, err
	}
	return updated, nil
}

// DeletePermission removes a permission from the registry. Roles that
// referenced it keep the dangling id, which from then on denies.
func (s *Service) DeletePermission(ctx context.Context, actor Actor, id int64) error {
	prev, err := s.store.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.store.DeletePermission(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted permission «%s»", prev.Name))
	})
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.store.GetRole(ctx, id)
}

// CreateRole creates a role with the given permission set.
func (s *Service) CreateRole(ctx context.Context, actor Actor, name string, permissionIDs []int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("rbac: role name required")
	}
	var created Role
	err := s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.store.CreateRole(ctx, q, name, permissionIDs)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added role «%s»", name))
	})
	if err != nil {
		return Role{}, err
	}
	return created, nil
}

// UpdateRole renames a role and replaces its permission set.
func (s *Service) UpdateRole(ctx context.Context, actor Actor, id int64, name string, permissionIDs []int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("rbac: role name required")
	}
	prev, err := s.store.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	var updated Role
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		updated, err = s.store.UpdateRole(ctx, q, id, name, permissionIDs)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed role «%s» to «%s»", prev.Name, name))
	})
	if err != nil {
		return Role{}, err
	}
	return updated, nil
}

// DeleteRole removes a role. Administrators still assigned to it fail
// closed on every gated route until reassigned.
func (s *Service) DeleteRole(ctx context.Context, actor Actor, id int64) error {
	prev, err := s.store.GetRole(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.store.DeleteRole(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted role «%s»", prev.Name))
	})
}

// Grants reports whether the role's permission set contains the
// permission bound to routeKey. The route is resolved against the live
// registry on every call; nothing is cached, so registry and role
// edits take effect on the next evaluation. Missing roles, missing
// permissions, and dangling references all deny.
func (s *Service) Grants(ctx context.Context, roleID int64, routeKey string) (bool, error) {
	perm, err := s.store.GetPermissionByRoute(ctx, routeKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, id := range role.PermissionIDs {
		if id == perm.ID {
			return true, nil
		}
	}
	return false, nil
}

// GrantsAdmin evaluates Grants for the role currently assigned to the
// administrator. An admin whose role was deleted after login denies.
func (s *Service) GrantsAdmin(ctx context.Context, adminID int64, routeKey string) (bool, error) {
	roleID, err := s.store.RoleIDForAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.Grants(ctx, roleID, routeKey)
}

func (s *Service) inTx(ctx context.Context, fn func(db.Queryable) error) error {
	if s.pool == nil {
		return fn(nil)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
