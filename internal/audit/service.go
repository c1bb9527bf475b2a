package audit

import (
	"context"
	"fmt"

	"github.com/reelhouse/reelhouse/internal/shared"
)

// Repository reads audit and login records, newest first.
type Repository interface {
	ListEntries(ctx context.Context, f Filters) ([]Entry, int, error)
	ListAdminLogins(ctx context.Context, f Filters) ([]AdminLogin, int, error)
	ListMemberLogins(ctx context.Context, memberID int64, page, pageSize int) ([]MemberLogin, int, error)
}

// Result bundles one page of entries with pagination metadata.
type Result[T any] struct {
	Rows       []T               `json:"rows"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service coordinates audit trail queries.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Entries returns one page of operation entries, newest first,
// optionally restricted to one actor.
func (s *Service) Entries(ctx context.Context, f Filters) (Result[Entry], error) {
	f = clamp(f)
	rows, total, err := s.repo.ListEntries(ctx, f)
	if err != nil {
		return Result[Entry]{}, fmt.Errorf("audit: list entries: %w", err)
	}
	return Result[Entry]{Rows: rows, Pagination: shared.NewPagination(f.Page, f.PageSize, total)}, nil
}

// AdminLogins returns one page of administrator login records.
func (s *Service) AdminLogins(ctx context.Context, f Filters) (Result[AdminLogin], error) {
	f = clamp(f)
	rows, total, err := s.repo.ListAdminLogins(ctx, f)
	if err != nil {
		return Result[AdminLogin]{}, fmt.Errorf("audit: list admin logins: %w", err)
	}
	return Result[AdminLogin]{Rows: rows, Pagination: shared.NewPagination(f.Page, f.PageSize, total)}, nil
}

// MemberLogins returns one page of member login records. A zero
// memberID lists all members (the admin view); a member passes their
// own id for the personal login-log page.
func (s *Service) MemberLogins(ctx context.Context, memberID int64, page, pageSize int) (Result[MemberLogin], error) {
	f := clamp(Filters{Page: page, PageSize: pageSize})
	rows, total, err := s.repo.ListMemberLogins(ctx, memberID, f.Page, f.PageSize)
	if err != nil {
		return Result[MemberLogin]{}, fmt.Errorf("audit: list member logins: %w", err)
	}
	return Result[MemberLogin]{Rows: rows, Pagination: shared.NewPagination(f.Page, f.PageSize, total)}, nil
}

func clamp(f Filters) Filters {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 50 {
		f.PageSize = 50
	}
	return f
}
