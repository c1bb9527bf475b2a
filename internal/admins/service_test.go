package admins_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/reelhouse/reelhouse/internal/admins"
	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	_ "github.com/reelhouse/reelhouse/testing"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]admins.Admin
	hashes map[int64]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[int64]admins.Admin{}, hashes: map[int64]string{}}
}

func (r *stubRepo) List(ctx context.Context, page, pageSize int) ([]admins.Admin, int, error) {
	out := make([]admins.Admin, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (r *stubRepo) Get(ctx context.Context, id int64) (admins.Admin, error) {
	a, ok := r.byID[id]
	if !ok {
		return admins.Admin{}, admins.ErrNotFound
	}
	return a, nil
}

func (r *stubRepo) Create(ctx context.Context, q db.Queryable, name, hash string, roleID int64) (admins.Admin, error) {
	for _, a := range r.byID {
		if a.Name == name {
			return admins.Admin{}, admins.ErrDuplicate
		}
	}
	r.nextID++
	a := admins.Admin{ID: r.nextID, Name: name, RoleID: roleID}
	r.byID[a.ID] = a
	r.hashes[a.ID] = hash
	return a, nil
}

func (r *stubRepo) SetRole(ctx context.Context, q db.Queryable, id, roleID int64) error {
	a, ok := r.byID[id]
	if !ok {
		return admins.ErrNotFound
	}
	a.RoleID = roleID
	r.byID[id] = a
	return nil
}

type stubRecorder struct {
	reasons []string
}

func (r *stubRecorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

func newService() (*admins.Service, *stubRepo, *stubRecorder) {
	repo := newStubRepo()
	recorder := &stubRecorder{}
	return admins.NewService(repo, nil, recorder), repo, recorder
}

func TestCreateHashesPasswordAndAudits(t *testing.T) {
	svc, repo, recorder := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1, IP: "127.0.0.1"}

	created, err := svc.Create(ctx, actor, "clerk", "secret123", 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.RoleID != 2 {
		t.Fatalf("expected role 2, got %d", created.RoleID)
	}
	hash := repo.hashes[created.ID]
	if hash == "secret123" {
		t.Fatalf("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")); err != nil {
		t.Fatalf("stored verifier does not match: %v", err)
	}
	if len(recorder.reasons) != 1 || recorder.reasons[0] != "added administrator «clerk»" {
		t.Fatalf("expected audit entry, got %v", recorder.reasons)
	}
}

func TestCreateRejectsDuplicateAndBlank(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	if _, err := svc.Create(ctx, actor, "clerk", "secret123", 2); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, actor, "clerk", "other", 2); !errors.Is(err, admins.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := svc.Create(ctx, actor, "  ", "secret123", 2); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := svc.Create(ctx, actor, "other", "", 2); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestSetRoleAudits(t *testing.T) {
	svc, repo, recorder := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	created, _ := svc.Create(ctx, actor, "clerk", "secret123", 2)
	if err := svc.SetRole(ctx, actor, created.ID, 5); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if repo.byID[created.ID].RoleID != 5 {
		t.Fatalf("expected role 5, got %d", repo.byID[created.ID].RoleID)
	}
	want := "changed role of administrator «clerk»"
	if recorder.reasons[len(recorder.reasons)-1] != want {
		t.Fatalf("expected audit %q, got %v", want, recorder.reasons)
	}

	if err := svc.SetRole(ctx, actor, 99, 5); !errors.Is(err, admins.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
