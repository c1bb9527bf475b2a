package tags

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// Service manages the tag taxonomy. Every mutation and its audit
// entry commit as one transaction.
type Service struct {
	repo  Repository
	pool  *pgxpool.Pool
	audit rbac.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, pool *pgxpool.Pool, audit rbac.Recorder) *Service {
	return &Service{repo: repo, pool: pool, audit: audit}
}

// List returns one page of tags, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]Tag, shared.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	tags, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return tags, shared.NewPagination(page, pageSize, total), nil
}

// All returns every tag, for classification pickers.
func (s *Service) All(ctx context.Context) ([]Tag, error) {
	return s.repo.All(ctx)
}

// Create adds a tag. Names are unique.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("tags: name required")
	}
	var created Tag
	err := s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.repo.Create(ctx, q, name)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added tag «%s»", name))
	})
	if err != nil {
		return Tag{}, err
	}
	return created, nil
}

// Rename changes a tag's name.
func (s *Service) Rename(ctx context.Context, actor rbac.Actor, id int64, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, fmt.Errorf("tags: name required")
	}
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return Tag{}, err
	}
	if prev.Name == name {
		return prev, nil
	}
	var updated Tag
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		updated, err = s.repo.Rename(ctx, q, id, name)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed tag «%s» to «%s»", prev.Name, name))
	})
	if err != nil {
		return Tag{}, err
	}
	return updated, nil
}

// Delete removes a tag.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, id int64) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.repo.Delete(ctx, q, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("deleted tag «%s»", prev.Name))
	})
}

func (s *Service) inTx(ctx context.Context, fn func(db.Queryable) error) error {
	if s.pool == nil {
		return fn(nil)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
