package tags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelhouse/reelhouse/internal/catalog/tags"
	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	_ "github.com/reelhouse/reelhouse/testing"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]tags.Tag
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[int64]tags.Tag{}}
}

func (r *stubRepo) List(ctx context.Context, page, pageSize int) ([]tags.Tag, int, error) {
	all, _ := r.All(ctx)
	return all, len(all), nil
}

func (r *stubRepo) All(ctx context.Context) ([]tags.Tag, error) {
	out := make([]tags.Tag, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out, nil
}

func (r *stubRepo) Get(ctx context.Context, id int64) (tags.Tag, error) {
	t, ok := r.byID[id]
	if !ok {
		return tags.Tag{}, tags.ErrNotFound
	}
	return t, nil
}

func (r *stubRepo) Create(ctx context.Context, q db.Queryable, name string) (tags.Tag, error) {
	for _, t := range r.byID {
		if t.Name == name {
			return tags.Tag{}, tags.ErrDuplicate
		}
	}
	r.nextID++
	t := tags.Tag{ID: r.nextID, Name: name, CreatedAt: time.Now()}
	r.byID[t.ID] = t
	return t, nil
}

func (r *stubRepo) Rename(ctx context.Context, q db.Queryable, id int64, name string) (tags.Tag, error) {
	t, ok := r.byID[id]
	if !ok {
		return tags.Tag{}, tags.ErrNotFound
	}
	for _, other := range r.byID {
		if other.ID != id && other.Name == name {
			return tags.Tag{}, tags.ErrDuplicate
		}
	}
	t.Name = name
	r.byID[id] = t
	return t, nil
}

func (r *stubRepo) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return tags.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubRecorder struct {
	reasons []string
}

func (r *stubRecorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

func newService() (*tags.Service, *stubRepo, *stubRecorder) {
	repo := newStubRepo()
	recorder := &stubRecorder{}
	return tags.NewService(repo, nil, recorder), repo, recorder
}

func TestCreateDuplicateName(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	if _, err := svc.Create(ctx, actor, "drama"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, actor, "drama")
	if !errors.Is(err, tags.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate got %v", err)
	}
}

func TestCreateBlankName(t *testing.T) {
	svc, _, recorder := newService()
	if _, err := svc.Create(context.Background(), rbac.Actor{}, "   "); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if len(recorder.reasons) != 0 {
		t.Fatalf("a rejected create must not be audited")
	}
}

func TestMutationsAuditReasons(t *testing.T) {
	svc, _, recorder := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 5, IP: "10.0.0.2"}

	tag, err := svc.Create(ctx, actor, "drama")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Rename(ctx, actor, tag.ID, "comedy"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := svc.Delete(ctx, actor, tag.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{
		"added tag «drama»",
		"changed tag «drama» to «comedy»",
		"deleted tag «comedy»",
	}
	if len(recorder.reasons) != len(want) {
		t.Fatalf("expected %d audit entries, got %v", len(want), recorder.reasons)
	}
	for i := range want {
		if recorder.reasons[i] != want[i] {
			t.Fatalf("audit entry %d: expected %q got %q", i, want[i], recorder.reasons[i])
		}
	}
}

func TestRenameSameNameIsNoOp(t *testing.T) {
	svc, _, recorder := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	tag, _ := svc.Create(ctx, actor, "drama")
	got, err := svc.Rename(ctx, actor, tag.ID, "drama")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Name != "drama" {
		t.Fatalf("expected unchanged name, got %q", got.Name)
	}
	if len(recorder.reasons) != 1 {
		t.Fatalf("an unchanged rename must not be audited, got %v", recorder.reasons)
	}
}

func TestDeleteMissing(t *testing.T) {
	svc, _, _ := newService()
	if err := svc.Delete(context.Background(), rbac.Actor{}, 99); !errors.Is(err, tags.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
