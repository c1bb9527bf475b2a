package movies

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

const maxUploadBytes = 512 << 20

// Handler wires catalog management and public browsing endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the gated catalog routes.
func (h *Handler) MountRoutes(r chi.Router, gate rbac.Gate) {
	r.With(gate.Require(shared.RouteMovieList)).Get("/movie/list", h.list)
	r.With(gate.Require(shared.RouteMovieAdd)).Post("/movie/add", h.create)
	r.With(gate.Require(shared.RouteMovieEdit)).Post("/movie/edit/{id}", h.update)
	r.With(gate.Require(shared.RouteMovieDel)).Post("/movie/del/{id}", h.delete)
}

// MountPublicRoutes registers the ungated browsing routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/movies", h.browse)
	r.Get("/movies/{id}", h.view)
	r.Get("/search", h.search)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, filtersFromQuery(r))
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, filtersFromQuery(r))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	f := filtersFromQuery(r)
	f.Title = r.URL.Query().Get("q")
	h.respondList(w, r, f)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, f Filters) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	out, pagination, err := h.service.List(r.Context(), f, page, pageSize)
	if err != nil {
		h.logger.Error("list movies", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"movies":     out,
		"pagination": pagination,
	})
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	m, err := h.service.View(r.Context(), id)
	if err != nil {
		h.respondError(w, "view movie", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := inputFromMultipart(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	m, err := h.service.Create(r.Context(), actorFromRequest(r), in)
	if err != nil {
		h.respondError(w, "create movie", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	in, err := inputFromMultipart(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	m, err := h.service.Update(r.Context(), actorFromRequest(r), id, in)
	if err != nil {
		h.respondError(w, "update movie", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		h.respondError(w, "delete movie", err)
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

func inputFromMultipart(r *http.Request) (Input, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return Input{}, errors.New("invalid multipart body")
	}
	star, _ := strconv.Atoi(r.FormValue("star"))
	tagID, _ := strconv.ParseInt(r.FormValue("tag_id"), 10, 64)
	release, _ := time.Parse("2006-01-02", r.FormValue("release_date"))
	in := Input{
		Title:       r.FormValue("title"),
		Info:        r.FormValue("info"),
		Star:        star,
		TagID:       tagID,
		Area:        r.FormValue("area"),
		ReleaseDate: release,
		Length:      r.FormValue("length"),
	}
	if f, header, err := r.FormFile("url"); err == nil {
		in.File = &Upload{Name: header.Filename, Body: f}
	}
	if f, header, err := r.FormFile("logo"); err == nil {
		in.Logo = &Upload{Name: header.Filename, Body: f}
	}
	return in, nil
}

func filtersFromQuery(r *http.Request) Filters {
	tagID, _ := strconv.ParseInt(r.URL.Query().Get("tag_id"), 10, 64)
	star, _ := strconv.Atoi(r.URL.Query().Get("star"))
	return Filters{
		TagID: tagID,
		Star:  star,
		Title: r.URL.Query().Get("title"),
	}
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
