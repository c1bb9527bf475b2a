package members

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

// AdminHandler wires the back-office moderation endpoints for members,
// comments, and favorites.
type AdminHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(logger *slog.Logger, service *Service) *AdminHandler {
	return &AdminHandler{logger: logger, service: service}
}

// MountRoutes registers the gated moderation routes.
func (h *AdminHandler) MountRoutes(r chi.Router, gate rbac.Gate) {
	r.With(gate.Require(shared.RouteMemberList)).Get("/member/list", h.listMembers)
	r.With(gate.Require(shared.RouteMemberView)).Get("/member/view/{id}", h.viewMember)
	r.With(gate.Require(shared.RouteMemberDel)).Post("/member/del/{id}", h.deleteMember)

	r.With(gate.Require(shared.RouteCommentList)).Get("/comment/list", h.listComments)
	r.With(gate.Require(shared.RouteCommentDel)).Post("/comment/del/{id}", h.deleteComment)

	r.With(gate.Require(shared.RouteFavoriteList)).Get("/favorite/list", h.listFavorites)
	r.With(gate.Require(shared.RouteFavoriteDel)).Post("/favorite/del/{id}", h.deleteFavorite)
}

func (h *AdminHandler) listMembers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("list members", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"members":    out,
		"pagination": pagination,
	})
}

func (h *AdminHandler) viewMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "view member", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *AdminHandler) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		h.respondError(w, "delete member", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) listComments(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.AllComments(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("list comments", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"comments":   out,
		"pagination": pagination,
	})
}

func (h *AdminHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.DeleteComment(r.Context(), actorFromRequest(r), id); err != nil {
		h.respondError(w, "delete comment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) listFavorites(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.AllFavorites(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("list favorites", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"favorites":  out,
		"pagination": pagination,
	})
}

func (h *AdminHandler) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.DeleteFavorite(r.Context(), actorFromRequest(r), id); err != nil {
		h.respondError(w, "delete favorite", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *AdminHandler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func actorFromRequest(r *http.Request) rbac.Actor {
	actor := rbac.Actor{IP: r.RemoteAddr}
	if sess := shared.AdminSessionFromContext(r.Context()); sess != nil {
		actor.AdminID = sess.Principal()
	}
	return actor
}
