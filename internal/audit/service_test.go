package audit_test

import (
	"context"
	"testing"

	"github.com/reelhouse/reelhouse/internal/audit"
	_ "github.com/reelhouse/reelhouse/testing"
)

type stubRepo struct {
	lastFilters  audit.Filters
	lastMemberID int64
	entries      []audit.Entry
	total        int
}

func (r *stubRepo) ListEntries(ctx context.Context, f audit.Filters) ([]audit.Entry, int, error) {
	r.lastFilters = f
	return r.entries, r.total, nil
}

func (r *stubRepo) ListAdminLogins(ctx context.Context, f audit.Filters) ([]audit.AdminLogin, int, error) {
	r.lastFilters = f
	return nil, r.total, nil
}

func (r *stubRepo) ListMemberLogins(ctx context.Context, memberID int64, page, pageSize int) ([]audit.MemberLogin, int, error) {
	r.lastMemberID = memberID
	r.lastFilters = audit.Filters{Page: page, PageSize: pageSize}
	return nil, r.total, nil
}

func TestEntriesClampsPaging(t *testing.T) {
	repo := &stubRepo{total: 120}
	svc := audit.NewService(repo)
	ctx := context.Background()

	cases := []struct {
		name             string
		page, pageSize   int
		wantPage, wantPS int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 10, 1, 10},
		{"oversized page size", 2, 500, 2, 50},
		{"in range", 3, 25, 3, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := svc.Entries(ctx, audit.Filters{Page: tc.page, PageSize: tc.pageSize})
			if err != nil {
				t.Fatalf("entries: %v", err)
			}
			if repo.lastFilters.Page != tc.wantPage || repo.lastFilters.PageSize != tc.wantPS {
				t.Fatalf("expected repo to see page=%d size=%d, got page=%d size=%d",
					tc.wantPage, tc.wantPS, repo.lastFilters.Page, repo.lastFilters.PageSize)
			}
			if res.Pagination.Page != tc.wantPage {
				t.Fatalf("expected pagination page %d got %d", tc.wantPage, res.Pagination.Page)
			}
		})
	}
}

func TestEntriesActorFilterPassesThrough(t *testing.T) {
	repo := &stubRepo{}
	svc := audit.NewService(repo)

	if _, err := svc.Entries(context.Background(), audit.Filters{AdminID: 7, Page: 1, PageSize: 20}); err != nil {
		t.Fatalf("entries: %v", err)
	}
	if repo.lastFilters.AdminID != 7 {
		t.Fatalf("expected actor filter 7, got %d", repo.lastFilters.AdminID)
	}
}

func TestMemberLoginsScope(t *testing.T) {
	repo := &stubRepo{}
	svc := audit.NewService(repo)
	ctx := context.Background()

	// Zero member id is the admin view over all members.
	if _, err := svc.MemberLogins(ctx, 0, 0, 0); err != nil {
		t.Fatalf("member logins: %v", err)
	}
	if repo.lastMemberID != 0 {
		t.Fatalf("expected all-members scope, got %d", repo.lastMemberID)
	}
	if repo.lastFilters.Page != 1 || repo.lastFilters.PageSize != 20 {
		t.Fatalf("expected clamped paging, got %+v", repo.lastFilters)
	}

	if _, err := svc.MemberLogins(ctx, 42, 2, 10); err != nil {
		t.Fatalf("member logins: %v", err)
	}
	if repo.lastMemberID != 42 {
		t.Fatalf("expected member scope 42, got %d", repo.lastMemberID)
	}
}
