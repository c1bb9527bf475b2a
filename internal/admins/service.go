package admins

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelhouse/reelhouse/internal/platform/db"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// Service manages administrator accounts. Account mutations and their
// audit entries commit as one transaction.
type Service struct {
	repo  Repository
	pool  *pgxpool.Pool
	audit rbac.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, pool *pgxpool.Pool, audit rbac.Recorder) *Service {
	return &Service{repo: repo, pool: pool, audit: audit}
}

// List returns one page of administrators with role names.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]Admin, shared.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}
	admins, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return admins, shared.NewPagination(page, pageSize, total), nil
}

// Create registers a new administrator bound to a role.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, name, password string, roleID int64) (Admin, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return Admin{}, fmt.Errorf("admins: name and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, err
	}
	var created Admin
	err = s.inTx(ctx, func(q db.Queryable) error {
		var err error
		created, err = s.repo.Create(ctx, q, name, string(hash), roleID)
		if err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("added administrator «%s»", name))
	})
	if err != nil {
		return Admin{}, err
	}
	return created, nil
}

// SetRole reassigns an administrator to a different role. The new
// permission set applies on the admin's next gated request.
func (s *Service) SetRole(ctx context.Context, actor rbac.Actor, id, roleID int64) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(q db.Queryable) error {
		if err := s.repo.SetRole(ctx, q, id, roleID); err != nil {
			return err
		}
		return s.audit.Record(ctx, q, actor.AdminID, actor.IP,
			fmt.Sprintf("changed role of administrator «%s»", prev.Name))
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
