package rbac_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
	_ "github.com/reelhouse/reelhouse/testing"
)

type stubAuthorizer struct {
	granted map[string]bool
	err     error
}

func (s *stubAuthorizer) GrantsAdmin(ctx context.Context, adminID int64, routeKey string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.granted[routeKey], nil
}

func adminRequest(t *testing.T, target string, principal int64) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	sm := shared.NewSessionManager(nil, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if principal != 0 {
		sess.SetPrincipal(principal)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGateRedirectsAnonymousWithResumeTarget(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{}, LoginPath: "/admin/login"}
	req := adminRequest(t, "/admin/tag/list?page=2", 0)
	res := httptest.NewRecorder()

	gate.Require("/admin/tag/list")(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	loc := res.Header().Get("Location")
	want := "/admin/login?next=" + url.QueryEscape("/admin/tag/list?page=2")
	if loc != want {
		t.Fatalf("expected redirect to %q, got %q", want, loc)
	}
}

func TestGateDeniedLooksLikeMissingRoute(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{granted: map[string]bool{}}}
	req := adminRequest(t, "/admin/tag/add", 1)
	res := httptest.NewRecorder()

	gate.Require("/admin/tag/add")(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on deny, got %d", res.Code)
	}

	// The body must match what an unrouted path produces.
	plain := httptest.NewRecorder()
	http.NotFound(plain, req)
	if res.Body.String() != plain.Body.String() {
		t.Fatalf("deny body differs from a plain 404: %q vs %q", res.Body.String(), plain.Body.String())
	}
}

func TestGateAdmitsGranted(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{granted: map[string]bool{"/admin/tag/add": true}}}
	req := adminRequest(t, "/admin/tag/add", 1)
	res := httptest.NewRecorder()

	gate.Require("/admin/tag/add")(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestGateAuthorizerErrorIs500(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{err: errors.New("boom")}}
	req := adminRequest(t, "/admin/tag/add", 1)
	res := httptest.NewRecorder()

	gate.Require("/admin/tag/add")(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestGateRequireAuthOnlyNeedsSession(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{}}
	req := adminRequest(t, "/admin/pwd", 1)
	res := httptest.NewRecorder()

	gate.RequireAuth(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated admin, got %d", res.Code)
	}
}

func TestMemberGateRedirectsToMemberLogin(t *testing.T) {
	gate := rbac.MemberGate{LoginPath: "/login"}
	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	res := httptest.NewRecorder()

	gate.RequireAuth(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	want := "/login?next=" + url.QueryEscape("/favorites")
	if loc := res.Header().Get("Location"); loc != want {
		t.Fatalf("expected redirect to %q, got %q", want, loc)
	}
}

func TestMemberSessionDoesNotOpenAdminGate(t *testing.T) {
	gate := rbac.Gate{Authorizer: &stubAuthorizer{granted: map[string]bool{"/admin/tag/list": true}}, LoginPath: "/admin/login"}

	req := httptest.NewRequest(http.MethodGet, "/admin/tag/list", nil)
	sm := shared.NewSessionManager(nil, shared.KindMember, "reelhouse_member", time.Hour, false)
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetPrincipal(9)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	gate.Require("/admin/tag/list")(okHandler()).ServeHTTP(res, req)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected member session to be invisible to the admin gate, got %d", res.Code)
	}
}
