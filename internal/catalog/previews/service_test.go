package previews

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	_ "github.com/reelhouse/reelhouse/testing"
)

type memoryRepo struct {
	nextID int64
	byID   map[int64]Preview
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Preview)}
}

func (r *memoryRepo) List(ctx context.Context, page, pageSize int) ([]Preview, int, error) {
	out := make([]Preview, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Preview, error) {
	p, ok := r.byID[id]
	if !ok {
		return Preview{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, q db.Queryable, title, logo string) (Preview, error) {
	for _, p := range r.byID {
		if p.Title == title {
			return Preview{}, ErrDuplicate
		}
	}
	r.nextID++
	p := Preview{ID: r.nextID, Title: title, Logo: logo, CreatedAt: time.Now()}
	r.byID[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, q db.Queryable, id int64, title, logo string) (Preview, error) {
	p, ok := r.byID[id]
	if !ok {
		return Preview{}, ErrNotFound
	}
	p.Title = title
	if logo != "" {
		p.Logo = logo
	}
	r.byID[id] = p
	return p, nil
}

func (r *memoryRepo) Delete(ctx context.Context, q db.Queryable, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type memoryRecorder struct {
	reasons []string
}

func (r *memoryRecorder) Record(ctx context.Context, q db.Queryable, adminID int64, ip, reason string) error {
	r.reasons = append(r.reasons, reason)
	return nil
}

type memorySink struct {
	removed []string
}

func (s *memorySink) Save(subdir, suggestedName string, src io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, src)
	return suggestedName, nil
}

func (s *memorySink) Remove(subdir, name string) error {
	s.removed = append(s.removed, name)
	return nil
}

func TestPreviewLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	recorder := &memoryRecorder{}
	sink := &memorySink{}
	svc := NewService(repo, nil, recorder, sink)
	ctx := context.Background()
	actor := rbac.Actor{AdminID: 1, IP: "127.0.0.1"}

	created, err := svc.Create(ctx, actor, "Summer Season", &Upload{Name: "summer.png", Body: strings.NewReader("img")})
	require.NoError(t, err)
	require.Equal(t, "summer.png", created.Logo)

	// Editing without a fresh upload keeps the stored banner.
	updated, err := svc.Update(ctx, actor, created.ID, "Autumn Season", nil)
	require.NoError(t, err)
	require.Equal(t, "summer.png", updated.Logo)
	require.Equal(t, "Autumn Season", updated.Title)

	require.NoError(t, svc.Delete(ctx, actor, created.ID))
	require.Equal(t, []string{"summer.png"}, sink.removed)

	require.Equal(t, []string{
		"added preview «Summer Season»",
		"changed preview «Summer Season» to «Autumn Season»",
		"deleted preview «Autumn Season»",
	}, recorder.reasons)
}

func TestPreviewValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, &memoryRecorder{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, rbac.Actor{}, "   ", nil)
	require.Error(t, err)

	_, err = svc.Create(ctx, rbac.Actor{}, "Summer Season", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, rbac.Actor{}, "Summer Season", nil)
	require.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Update(ctx, rbac.Actor{}, 99, "Nothing", nil)
	require.ErrorIs(t, err, ErrNotFound)
}
