package movies

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// FileSink stores uploaded movie files and posters.
type FileSink interface {
	Save(subdir, suggestedName string, src io.Reader) (string, error)
	Remove(subdir, name string) error
}

// Upload carries raw bytes from a multipart form into the sink.
type Upload struct {
	Name string
	Body io.Reader
}

// Input collects the editable fields of a movie.
type Input struct {
	Title       string
	Info        string
	Star        int
	TagID       int64
	Area        string
	ReleaseDate time.Time
	Length      string
	File        *Upload
	Logo        *Upload
}

// Service manages the movie catalog. Mutations and their audit entries
// commit as one transaction; file writes happen before, so a rolled
// back mutation leaves at worst an orphaned file.
type Service struct {
	repo  Repository
	pool  *pgxpool.Pool
	audit rbac.Recorder
	files FileSink
}

// NewService constructs a Service.
func NewService(repo Repository, pool *pgxpool.Pool, audit rbac.Recorder, files FileSink) *Service {
	return &Service{repo: repo, pool: pool, audit: audit, files: files}
}

// List returns one page of movies matching the filters.
func (s *Service) List(ctx context.Context, f Filters, page, pageSize int) ([]Movie, shared.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	f.Title = strings.TrimSpace(f.Title)
	out, total, err := s.repo.List(ctx, f, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// Get fetches one movie.
func (s *Service) Get(ctx context.Context, id int64) (Movie, error) {
	return s.repo.Get(ctx, id)
}

// View fetches a movie for public display and bumps its play counter.
func (s *Service) View(ctx context.Context, id int64) (Movie, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Movie{}, err
	}
	if err := s.repo.BumpPlayCount(ctx, id); err != nil {
		return Movie{}, err
	}
	m.PlayCount++
	return m, nil
}

// Create adds a movie, storing its file and poster first.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, in Input) (Movie, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Movie{}, fmt.Errorf("movies: title required")
	}
	m := Movie{
		Title:       in.Title,
		Info:        in.Info,
		Star:        clampStar(in.Star),
		TagID:       in.TagID,
		Area:        in.Area,
		ReleaseDate: in.ReleaseDate,
		Length:      in.Length,
	}
	var err error
	if m.URL, err = s.store("movies", in.File); err != nil {
		return Movie{}, err
	}
	if m.Logo, err = s.store("logos", in.Logo); err != nil {
		return Movie{}, err
	}

	var created Movie
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.repo.Create(ctx, q, m)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added movie «%s»", m.Title))
	})
	if err != nil {
		return Movie{}, err
	}
	return created, nil
}

// Update edits a movie. Absent uploads keep the stored files.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, id int64, in Input) (Movie, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Movie{}, fmt.Errorf("movies: title required")
	}
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return Movie{}, err
	}
	m := Movie{
		ID:          id,
		Title:       in.Title,
		Info:        in.Info,
		Star:        clampStar(in.Star),
		TagID:       in.TagID,
		Area:        in.Area,
		ReleaseDate: in.ReleaseDate,
		Length:      in.Length,
	}
	if m.URL, err = s.store("movies", in.File); err != nil {
		return Movie{}, err
	}
	if m.Logo, err = s.store("logos", in.Logo); err != nil {
		return Movie{}, err
	}

	var updated Movie
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		updated, err = s.repo.Update(ctx, q, m)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed movie «%s» to «%s»", prev.Title, m.Title))
	})
	if err != nil {
		return Movie{}, err
	}
	return updated, nil
}

// Delete removes a movie and its stored files.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(q db.Queryable) error {
		if err := s.repo.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted movie «%s»", prev.Title))
	})
	if err != nil {
		return err
	}
	if s.files != nil {
		_ = s.files.Remove("movies", prev.URL)
		_ = s.files.Remove("logos", prev.Logo)
	}
	return nil
}

func (s *Service) store(subdir string, up *Upload) (string, error) {
	if up == nil || s.files == nil {
		return "", nil
	}
	name, err := s.files.Save(subdir, up.Name, up.Body)
	if err != nil {
		return "", fmt.Errorf("movies: store upload: %w", err)
	}
	return name, nil
}

func (s *Service) inTx(ctx context.Context, fn func(db.Queryable) error) error {
	if s.pool == nil {
		return fn(nil)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

func clampStar(star int) int {
	if star < 1 {
		return 1
	}
	if star > 5 {
		return 5
	}
	return star
}
