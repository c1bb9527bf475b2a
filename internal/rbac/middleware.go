package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/reelhouse/reelhouse/internal/shared"
)

// Authorizer decides whether an administrator may use a gated route.
type Authorizer interface {
	GrantsAdmin(ctx context.Context, adminID int64, routeKey string) (bool, error)
}

// Gate enforces the per-request authorization sequence for the admin
// back office: no session → redirect to login carrying the requested
// URL; session but no grant → 404, indistinguishable from a route that
// does not exist.
type Gate struct {
	Authorizer Authorizer
	Logger     *slog.Logger
	LoginPath  string
	// Denials, when set, counts gated requests answered with 404.
	Denials interface{ CountDenied(routeKey string) }
}

// RequireAuth admits any authenticated administrator. Routes gated on
// a specific permission use Require instead.
func (g Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := g.currentAdmin(r); !ok {
			g.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require admits administrators whose role grants the permission bound
// to routeKey. The key is the canonical route identifier recorded in
// the permission registry and is matched by exact string equality.
func (g Gate) Require(routeKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID, ok := g.currentAdmin(r)
			if !ok {
				g.redirectToLogin(w, r)
				return
			}
			granted, err := g.Authorizer.GrantsAdmin(r.Context(), adminID, routeKey)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Error("authorization check", slog.String("route", routeKey), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !granted {
				if g.Denials != nil {
					g.Denials.CountDenied(routeKey)
				}
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Gate) currentAdmin(r *http.Request) (int64, bool) {
	sess := shared.AdminSessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	id := sess.Principal()
	if id == 0 {
		return 0, false
	}
	return id, true
}

func (g Gate) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	login := g.LoginPath
	if login == "" {
		login = "/admin/login"
	}
	next := r.URL.RequestURI()
	// Only relative resume targets; anything else would be an open redirect.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = ""
	}
	target := login
	if next != "" && next != login {
		target = login + "?next=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// MemberGate enforces authentication for member-only routes on the
// public site. Members never carry permissions; presence of a session
// principal is the whole check.
type MemberGate struct {
	LoginPath string
}

// RequireAuth redirects anonymous visitors to the member login page,
// carrying the requested URL as the resume target.
func (g MemberGate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.MemberSessionFromContext(r.Context())
		if sess == nil || sess.Principal() == 0 {
			login := g.LoginPath
			if login == "" {
				login = "/login"
			}
			next := r.URL.RequestURI()
			if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
				next = ""
			}
			target := login
			if next != "" && next != login {
				target = login + "?next=" + url.QueryEscape(next)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
