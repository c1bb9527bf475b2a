package movies_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/reelhouse/reelhouse/internal/catalog/movies"
	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	_ "github.com/reelhouse/reelhouse/testing"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]movies.Movie
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[int64]movies.Movie{}}
}

func (r *stubRepo) List(ctx context.Context, f movies.Filters, page, pageSize int) ([]movies.Movie, int, error) {
	var out []movies.Movie
	for _, m := range r.byID {
		if f.TagID != 0 && m.TagID != f.TagID {
			continue
		}
		if f.Star != 0 && m.Star != f.Star {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(f.Title)) {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

func (r *stubRepo) Get(ctx context.Context, id int64) (movies.Movie, error) {
	m, ok := r.byID[id]
	if !ok {
		return movies.Movie{}, movies.ErrNotFound
	}
	return m, nil
}

func (r *stubRepo) Create(ctx context.Context, q db.Queryable, m movies.Movie) (movies.Movie, error) {
	for _, have := range r.byID {
		if have.Title == m.Title {
			return movies.Movie{}, movies.ErrDuplicate
		}
	}
	r.nextID++
	m.ID = r.nextID
	r.byID[m.ID] = m
	return m, nil
}

func (r *stubRepo) Update(ctx context.Context, q db.Queryable, m movies.Movie) (movies.Movie, error) {
	have, ok := r.byID[m.ID]
	if !ok {
		return movies.Movie{}, movies.ErrNotFound
	}
	// Absent uploads keep the stored files.
	if m.URL == "" {
		m.URL = have.URL
	}
	if m.Logo == "" {
		m.Logo = have.Logo
	}
	m.PlayCount = have.PlayCount
	m.CommentCount = have.CommentCount
	r.byID[m.ID] = m
	return m, nil
}

func (r *stubRepo) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return movies.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubRepo) BumpPlayCount(ctx context.Context, id int64) error {
	m, ok := r.byID[id]
	if !ok {
		return movies.ErrNotFound
	}
	m.PlayCount++
	r.byID[id] = m
	return nil
}

type stubRecorder struct {
	reasons []string
}

func (r *stubRecorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

type memSink struct {
	saved   []string
	removed []string
}

func (s *memSink) Save(subdir, suggestedName string, src io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, src)
	name := subdir + "/" + suggestedName
	s.saved = append(s.saved, name)
	return suggestedName, nil
}

func (s *memSink) Remove(subdir, name string) error {
	s.removed = append(s.removed, subdir+"/"+name)
	return nil
}

func newService() (*movies.Service, *stubRepo, *stubRecorder, *memSink) {
	repo := newStubRepo()
	recorder := &stubRecorder{}
	sink := &memSink{}
	return movies.NewService(repo, nil, recorder, sink), repo, recorder, sink
}

func upload(name, body string) *movies.Upload {
	return &movies.Upload{Name: name, Body: strings.NewReader(body)}
}

func TestCreateStoresFilesAndAudits(t *testing.T) {
	svc, _, recorder, sink := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1, IP: "127.0.0.1"}

	m, err := svc.Create(ctx, actor, movies.Input{
		Title: "Metropolis",
		Star:  9,
		File:  upload("metropolis.mp4", "bytes"),
		Logo:  upload("metropolis.png", "bytes"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Star != 5 {
		t.Fatalf("expected star clamped to 5, got %d", m.Star)
	}
	if m.URL != "metropolis.mp4" || m.Logo != "metropolis.png" {
		t.Fatalf("expected stored file names, got %q %q", m.URL, m.Logo)
	}
	if len(sink.saved) != 2 {
		t.Fatalf("expected two stored uploads, got %v", sink.saved)
	}
	if len(recorder.reasons) != 1 || recorder.reasons[0] != "added movie «Metropolis»" {
		t.Fatalf("expected audit entry, got %v", recorder.reasons)
	}
}

func TestCreateDuplicateTitle(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	if _, err := svc.Create(ctx, actor, movies.Input{Title: "Metropolis", Star: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, actor, movies.Input{Title: "Metropolis", Star: 3}); !errors.Is(err, movies.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateWithoutUploadsKeepsFiles(t *testing.T) {
	svc, _, recorder, _ := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	m, _ := svc.Create(ctx, actor, movies.Input{
		Title: "Metropolis",
		Star:  3,
		File:  upload("metropolis.mp4", "bytes"),
		Logo:  upload("metropolis.png", "bytes"),
	})

	updated, err := svc.Update(ctx, actor, m.ID, movies.Input{Title: "Metropolis Restored", Star: 4})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.URL != "metropolis.mp4" || updated.Logo != "metropolis.png" {
		t.Fatalf("expected stored files kept, got %q %q", updated.URL, updated.Logo)
	}
	want := "changed movie «Metropolis» to «Metropolis Restored»"
	if recorder.reasons[len(recorder.reasons)-1] != want {
		t.Fatalf("expected audit %q, got %v", want, recorder.reasons)
	}
}

func TestViewBumpsPlayCount(t *testing.T) {
	svc, repo, _, _ := newService()
	ctx := context.Background()

	m, _ := svc.Create(ctx, rbac.Actor{AdminID: 1}, movies.Input{Title: "Metropolis", Star: 3})

	viewed, err := svc.View(ctx, m.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if viewed.PlayCount != 1 {
		t.Fatalf("expected play count 1, got %d", viewed.PlayCount)
	}
	if repo.byID[m.ID].PlayCount != 1 {
		t.Fatalf("expected persisted play count 1, got %d", repo.byID[m.ID].PlayCount)
	}
}

func TestDeleteRemovesStoredFiles(t *testing.T) {
	svc, _, recorder, sink := newService()
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1}

	m, _ := svc.Create(ctx, actor, movies.Input{
		Title: "Metropolis",
		Star:  3,
		File:  upload("metropolis.mp4", "bytes"),
		Logo:  upload("metropolis.png", "bytes"),
	})

	if err := svc.Delete(ctx, actor, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(sink.removed) != 2 {
		t.Fatalf("expected both stored files removed, got %v", sink.removed)
	}
	want := "deleted movie «Metropolis»"
	if recorder.reasons[len(recorder.reasons)-1] != want {
		t.Fatalf("expected audit %q, got %v", want, recorder.reasons)
	}

	if err := svc.Delete(ctx, actor, m.ID); !errors.Is(err, movies.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
