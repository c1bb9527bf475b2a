package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reelhouse/reelhouse/internal/admins"
	"github.com/reelhouse/reelhouse/internal/audit"
	"github.com/reelhouse/reelhouse/internal/auth"
	"github.com/reelhouse/reelhouse/internal/catalog/movies"
	"github.com/reelhouse/reelhouse/internal/catalog/previews"
	"github.com/reelhouse/reelhouse/internal/catalog/tags"
	"github.com/reelhouse/reelhouse/internal/chat"
	"github.com/reelhouse/reelhouse/internal/members"
	"github.com/reelhouse/reelhouse/internal/observability"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AdminSessions  *shared.SessionManager
	MemberSessions *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	Gate       rbac.Gate
	MemberGate rbac.MemberGate

	AuthHandler    *auth.Handler
	RBACHandler    *rbac.Handler
	AdminsHandler  *admins.Handler
	AuditHandler   *audit.Handler
	TagsHandler    *tags.Handler
	MoviesHandler  *movies.Handler
	PreviewHandler *previews.Handler
	MembersHandler *members.Handler
	AdminMembers   *members.AdminHandler
	ChatHandler    *chat.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the public site and the
// admin back office.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		AdminSessions:  params.AdminSessions,
		MemberSessions: params.MemberSessions,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public site.
	params.MoviesHandler.MountPublicRoutes(r)
	params.PreviewHandler.MountPublicRoutes(r)
	params.MembersHandler.MountRoutes(r, params.MemberGate)
	params.ChatHandler.MountRoutes(r, params.MemberGate)

	// Admin back office. Every route beyond login/logout/pwd passes
	// the permission gate keyed by its own chi pattern.
	r.Route("/admin", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, params.Gate)
		params.RBACHandler.MountRoutes(r, params.Gate)
		params.AdminsHandler.MountRoutes(r, params.Gate)
		params.AuditHandler.MountRoutes(r, params.Gate)
		params.TagsHandler.MountRoutes(r, params.Gate)
		params.MoviesHandler.MountRoutes(r, params.Gate)
		params.PreviewHandler.MountRoutes(r, params.Gate)
		params.AdminMembers.MountRoutes(r, params.Gate)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
