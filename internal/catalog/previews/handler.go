package previews

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

const maxUploadBytes = 32 << 20

// Handler wires preview management and the public banner listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the gated preview routes.
func (h *Handler) MountRoutes(r chi.Router, gate rbac.Gate) {
	r.With(gate.Require(shared.RoutePreviewList)).Get("/preview/list", h.list)
	r.With(gate.Require(shared.RoutePreviewAdd)).Post("/preview/add", h.create)
	r.With(gate.Require(shared.RoutePreviewEdit)).Post("/preview/edit/{id}", h.update)
	r.With(gate.Require(shared.RoutePreviewDel)).Post("/preview/del/{id}", h.delete)
}

// MountPublicRoutes registers the ungated banner listing.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/previews", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	out, pagination, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("list previews", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"previews":   out,
		"pagination": pagination,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	title, logo, err := parseForm(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	p, err := h.service.Create(r.Context(), actorFromRequest(r), title, logo)
	if err != nil {
		h.respondError(w, "create preview", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	title, logo, err := parseForm(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), actorFromRequest(r), id, title, logo)
	if err != nil {
		h.respondError(w, "update preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		h.respondError(w, "delete preview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
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

func parseForm(r *http.Request) (string, *Upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, errors.New("invalid multipart body")
	}
	var logo *Upload
	if f, header, err := r.FormFile("logo"); err == nil {
		logo = &Upload{Name: header.Filename, Body: f}
	}
	return r.FormValue("title"), logo, nil
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorFromRequest(r *http.Request) rbac.Actor {
	actor := rbac.Actor{IP: r.RemoteAddr}
	if sess := shared.AdminSessionFromContext(r.Context()); sess != nil {
		actor.AdminID = sess.Principal()
	}
	return actor
}
