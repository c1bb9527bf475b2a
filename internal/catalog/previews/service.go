package previews

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// FileSink stores uploaded banner images.
type FileSink interface {
	Save(subdir, suggestedName string, src io.Reader) (string, error)
	Remove(subdir, name string) error
}

// Upload carries banner bytes into the sink.
type Upload struct {
	Name string
	Body io.Reader
}

// Service manages homepage previews. Mutations and their audit entries
// commit as one transaction.
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

// List returns one page of previews, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]Preview, shared.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	out, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, shared.NewPagination(page, pageSize, total), nil
}

// Create adds a preview with its banner image.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, title string, logo *Upload) (Preview, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Preview{}, fmt.Errorf("previews: title required")
	}
	name, err := s.store(logo)
	if err != nil {
		return Preview{}, err
	}
	var created Preview
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.repo.Create(ctx, q, title, name)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added preview «%s»", title))
	})
	if err != nil {
		return Preview{}, err
	}
	return created, nil
}

// Update edits a preview. An absent upload keeps the stored banner.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, id int64, title string, logo *Upload) (Preview, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Preview{}, fmt.Errorf("previews: title required")
	}
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	name, err := s.store(logo)
	if err != nil {
		return Preview{}, err
	}
	var updated Preview
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		updated, err = s.repo.Update(ctx, q, id, title, name)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed preview «%s» to «%s»", prev.Title, title))
	})
	if err != nil {
		return Preview{}, err
	}
	return updated, nil
}

// Delete removes a preview and its banner file.
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
			fmt.Sprintf("deleted preview «%s»", prev.Title))
	})
	if err != nil {
		return err
	}
	if s.files != nil {
		_ = s.files.Remove("previews", prev.Logo)
	}
	return nil
}

func (s *Service) store(up *Upload) (string, error) {
	if up == nil || s.files == nil {
		return "", nil
	}
	name, err := s.files.Save("previews", up.Name, up.Body)
	if err != nil {
		return "", fmt.Errorf("previews: store upload: %w", err)
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
