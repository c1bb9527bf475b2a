package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelhouse/reelhouse/internal/auth"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

func newLoginRouter(t *testing.T) (http.Handler, *shared.SessionManager) {
	t.Helper()
	svc, _, _ := newService(t, "secret123")
	sm := shared.NewSessionManager(nil, shared.KindAdmin, "reelhouse_admin", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, svc, sm)

	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		handler.MountRoutes(r, rbac.Gate{})
	})
	return r, sm
}

func postLogin(t *testing.T, router http.Handler, sm *shared.SessionManager, target, body string) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res, sess
}

const goodCredentials = `{"name":"root","password":"secret123"}`

func TestLoginResumesOriginalRoute(t *testing.T) {
	router, sm := newLoginRouter(t)

	target := "/admin/login?next=" + url.QueryEscape("/admin/tag/list?page=2")
	res, sess := postLogin(t, router, sm, target, goodCredentials)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/admin/tag/list?page=2" {
		t.Fatalf("expected redirect to the original route, got %q", loc)
	}
	if sess.Principal() != 1 {
		t.Fatalf("expected session principal 1, got %d", sess.Principal())
	}
}

func TestLoginKeepsEncodedCharactersInResumeTarget(t *testing.T) {
	router, sm := newLoginRouter(t)

	// A search for "50%": the original URL carries q=50%25, and the
	// redirect must land on exactly that, not a re-decoded variant.
	original := "/search?q=50%25"
	target := "/admin/login?next=" + url.QueryEscape(original)
	res, _ := postLogin(t, router, sm, target, goodCredentials)

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != original {
		t.Fatalf("resume target corrupted: want %q got %q", original, loc)
	}
}

func TestLoginRejectsUnsafeResumeTargets(t *testing.T) {
	router, sm := newLoginRouter(t)

	cases := []struct {
		name string
		next string
	}{
		{"scheme-relative", "//evil.com"},
		{"absolute url", "https://evil.com/x"},
		{"missing", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/admin/login"
			if tc.next != "" {
				target += "?next=" + url.QueryEscape(tc.next)
			}
			res, _ := postLogin(t, router, sm, target, goodCredentials)

			if res.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", res.Code)
			}
			if loc := res.Header().Get("Location"); loc != "/admin" {
				t.Fatalf("expected fallback redirect to /admin, got %q", loc)
			}
		})
	}
}

func TestLoginBadCredentialsLeaveSessionAnonymous(t *testing.T) {
	router, sm := newLoginRouter(t)

	res, sess := postLogin(t, router, sm, "/admin/login", `{"name":"root","password":"wrong"}`)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if sess.Principal() != 0 {
		t.Fatalf("failed login must not establish a principal, got %d", sess.Principal())
	}
}
