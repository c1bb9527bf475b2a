package rbac_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	_ "github.com/reelhouse/reelhouse/testing"
)

type memStore struct {
	nextPermID int64
	nextRoleID int64
	perms      map[int64]rbac.Permission
	roles      map[int64]rbac.Role
	adminRoles map[int64]int64
}

func newMemStore() *memStore {
	return &memStore{
		perms:      map[int64]rbac.Permission{},
		roles:      map[int64]rbac.Role{},
		adminRoles: map[int64]int64{},
	}
}

func (s *memStore) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	out := make([]rbac.Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) GetPermission(ctx context.Context, id int64) (rbac.Permission, error) {
	p, ok := s.perms[id]
	if !ok {
		return rbac.Permission{}, rbac.ErrNotFound
	}
	return p, nil
}

func (s *memStore) GetPermissionByRoute(ctx context.Context, route string) (rbac.Permission, error) {
	for _, p := range s.perms {
		if p.Route == route {
			return p, nil
		}
	}
	return rbac.Permission{}, rbac.ErrNotFound
}

func (s *memStore) CreatePermission(ctx context.Context, q db.Queryable, name, route string) (rbac.Permission, error) {
	for _, p := range s.perms {
		if p.Route == route {
			return rbac.Permission{}, rbac.ErrDuplicate
		}
	}
	s.nextPermID++
	p := rbac.Permission{ID: s.nextPermID, Name: name, Route: route}
	s.perms[p.ID] = p
	return p, nil
}

func (s *memStore) UpdatePermission(ctx context.Context, q db.Queryable, id int64, name, route string) (rbac.Permission, error) {
	p, ok := s.perms[id]
	if !ok {
		return rbac.Permission{}, rbac.ErrNotFound
	}
	p.Name, p.Route = name, route
	s.perms[id] = p
	return p, nil
}

func (s *memStore) DeletePermission(ctx context.Context, q db.Queryable, id int64) error {
	if _, ok := s.perms[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(s.perms, id)
	return nil
}

func (s *memStore) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return r, nil
}

func (s *memStore) CreateRole(ctx context.Context, q db.Queryable, name string, permissionIDs []int64) (rbac.Role, error) {
	s.nextRoleID++
	r := rbac.Role{ID: s.nextRoleID, Name: name, PermissionIDs: append([]int64(nil), permissionIDs...)}
	s.roles[r.ID] = r
	return r, nil
}

func (s *memStore) UpdateRole(ctx context.Context, q db.Queryable, id int64, name string, permissionIDs []int64) (rbac.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	r.Name = name
	r.PermissionIDs = append([]int64(nil), permissionIDs...)
	s.roles[id] = r
	return r, nil
}

func (s *memStore) DeleteRole(ctx context.Context, q db.Queryable, id int64) error {
	if _, ok := s.roles[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *memStore) RoleIDForAdmin(ctx context.Context, adminID int64) (int64, error) {
	id, ok := s.adminRoles[adminID]
	if !ok {
		return 0, rbac.ErrNotFound
	}
	return id, nil
}

type memRecorder struct {
	reasons []string
}

func (r *memRecorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

func newService() (*rbac.Service, *memStore, *memRecorder) {
	store := newMemStore()
	recorder := &memRecorder{}
	return rbac.NewService(store, nil, recorder), store, recorder
}

func TestGrantsMembership(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1, IP: "127.0.0.1"}

	perm, err := svc.CreatePermission(ctx, actor, "tag add", "/admin/tag/add")
	if err != nil {
		t.Fatalf("create permission: %v", err)
	}
	role, err := svc.CreateRole(ctx, actor, "editor", []int64{perm.ID})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	granted, err := svc.Grants(ctx, role.ID, "/admin/tag/add")
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if !granted {
		t.Fatalf("expected grant for role holding the permission")
	}

	granted, err = svc.Grants(ctx, role.ID, "/admin/tag/del/{id}")
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if granted {
		t.Fatalf("expected deny for unheld permission")
	}

	// Keys match by exact string equality, not by prefix.
	granted, _ = svc.Grants(ctx, role.ID, "/admin/tag/add/")
	if granted {
		t.Fatalf("expected deny for near-miss route key")
	}
}

func TestGrantsSeesLiveEdits(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	perm, _ := svc.CreatePermission(ctx, actor, "movie list", "/admin/movie/list")
	role, _ := svc.CreateRole(ctx, actor, "viewer", nil)

	if granted, _ := svc.Grants(ctx, role.ID, "/admin/movie/list"); granted {
		t.Fatalf("expected deny before the role holds the permission")
	}
	if _, err := svc.UpdateRole(ctx, actor, role.ID, "viewer", []int64{perm.ID}); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if granted, _ := svc.Grants(ctx, role.ID, "/admin/movie/list"); !granted {
		t.Fatalf("expected grant immediately after the role edit")
	}
	if _, err := svc.UpdateRole(ctx, actor, role.ID, "viewer", nil); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if granted, _ := svc.Grants(ctx, role.ID, "/admin/movie/list"); granted {
		t.Fatalf("expected deny immediately after the permission was removed")
	}
}

func TestGrantsDanglingPermissionDenies(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	perm, _ := svc.CreatePermission(ctx, actor, "tag del", "/admin/tag/del/{id}")
	role, _ := svc.CreateRole(ctx, actor, "janitor", []int64{perm.ID})

	if err := svc.DeletePermission(ctx, actor, perm.ID); err != nil {
		t.Fatalf("delete permission: %v", err)
	}

	granted, err := svc.Grants(ctx, role.ID, "/admin/tag/del/{id}")
	if err != nil {
		t.Fatalf("grants: %v", err)
	}
	if granted {
		t.Fatalf("expected deny for dangling permission reference")
	}
}

func TestGrantsAdminDeletedRoleDeniesAll(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	perm, _ := svc.CreatePermission(ctx, actor, "role list", "/admin/role/list")
	role, _ := svc.CreateRole(ctx, actor, "admin", []int64{perm.ID})
	store.adminRoles[42] = role.ID

	if granted, _ := svc.GrantsAdmin(ctx, 42, "/admin/role/list"); !granted {
		t.Fatalf("expected grant before role deletion")
	}
	if err := svc.DeleteRole(ctx, actor, role.ID); err != nil {
		t.Fatalf("delete role: %v", err)
	}
	granted, err := svc.GrantsAdmin(ctx, 42, "/admin/role/list")
	if err != nil {
		t.Fatalf("grants admin: %v", err)
	}
	if granted {
		t.Fatalf("expected deny-all after role deletion")
	}
}

func TestMutationsRecordAuditReasons(t *testing.T) {
	svc, _, recorder := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 7, IP: "10.0.0.1"}

	perm, _ := svc.CreatePermission(ctx, actor, "tag add", "/admin/tag/add")
	if _, err := svc.UpdatePermission(ctx, actor, perm.ID, "tag create", "/admin/tag/add"); err != nil {
		t.Fatalf("update permission: %v", err)
	}
	role, _ := svc.CreateRole(ctx, actor, "editor", []int64{perm.ID})
	if err := svc.DeleteRole(ctx, actor, role.ID); err != nil {
		t.Fatalf("delete role: %v", err)
	}

	want := []string{
		"added permission «tag add»",
		"changed permission «tag add» to «tag create»",
		"added role «editor»",
		"deleted role «editor»",
	}
	if len(recorder.reasons) != len(want) {
		t.Fatalf("expected %d audit entries, got %d: %v", len(want), len(recorder.reasons), recorder.reasons)
	}
	for i, reason := range want {
		if recorder.reasons[i] != reason {
			t.Fatalf("audit entry %d: expected %q got %q", i, reason, recorder.reasons[i])
		}
	}
}

func TestRoleRoundTrip(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	p1, _ := svc.CreatePermission(ctx, actor, "a", "/admin/tag/add")
	p2, _ := svc.CreatePermission(ctx, actor, "b", "/admin/tag/list")

	role, err := svc.CreateRole(ctx, actor, "editor", []int64{p1.ID, p2.ID, p1.ID})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	got, err := svc.GetRole(ctx, role.ID)
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if got.Name != "editor" {
		t.Fatalf("expected name editor got %q", got.Name)
	}
	for _, id := range []int64{p1.ID, p2.ID} {
		granted := false
		for _, held := range got.PermissionIDs {
			if held == id {
				granted = true
			}
		}
		if !granted {
			t.Fatalf("expected role to hold permission %d", id)
		}
	}
}

func TestCreatePermissionValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.CreatePermission(ctx, rbac.Actor{}, "  ", "/admin/tag/add"); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := svc.CreatePermission(ctx, rbac.Actor{}, "ok", "/admin/tag/add"); err != nil {
		t.Fatalf("create permission: %v", err)
	}
	_, err := svc.CreatePermission(ctx, rbac.Actor{}, "again", "/admin/tag/add")
	if !errors.Is(err, rbac.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
