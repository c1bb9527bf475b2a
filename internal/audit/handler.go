package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// Gate is the subset of the authorization middleware the audit
// listings need.
type Gate interface {
	Require(routeKey string) func(http.Handler) http.Handler
}

// Handler serves the back-office audit listings.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the gated audit routes.
func (h *Handler) MountRoutes(r chi.Router, gate Gate) {
	r.With(gate.Require(shared.RouteOplogList)).Get("/oplog/list", h.listEntries)
	r.With(gate.Require(shared.RouteAdminLoginlogList)).Get("/adminloginlog/list", h.listAdminLogins)
	r.With(gate.Require(shared.RouteMemberLoginlogList)).Get("/memberloginlog/list", h.listMemberLogins)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	f := Filters{
		AdminID:  queryInt64(r, "admin_id"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	result, err := h.service.Entries(r.Context(), f)
	if err != nil {
		h.logger.Error("list audit entries", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listAdminLogins(w http.ResponseWriter, r *http.Request) {
	f := Filters{
		AdminID:  queryInt64(r, "admin_id"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "page_size"),
	}
	result, err := h.service.AdminLogins(r.Context(), f)
	if err != nil {
		h.logger.Error("list admin logins", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listMemberLogins(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.MemberLogins(r.Context(),
		queryInt64(r, "member_id"), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		h.logger.Error("list member logins", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryInt64(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return n
}
