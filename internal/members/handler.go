package members

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reelhouse/reelhouse/internal/audit"
	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/rbac"
	"github.com/reelhouse/reelhouse/internal/shared"
)

const maxAvatarBytes = 16 << 20

// Handler wires the public member-facing endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	logins    *audit.Service
	sessions  *shared.SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler. sessions must be the member-kind
// manager.
func NewHandler(logger *slog.Logger, service *Service, logins *audit.Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		logins:    logins,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers the public member routes. gate guards the
// routes that need a member session.
func (h *Handler) MountRoutes(r chi.Router, gate rbac.MemberGate) {
	r.Post("/register", h.register)
	r.Get("/login", h.showLogin)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)
		r.Get("/profile", h.profile)
		r.Post("/profile", h.updateProfile)
		r.Post("/pwd", h.changePassword)
		r.Get("/loginlog", h.loginLog)
		r.Get("/comments", h.ownComments)
		r.Post("/movies/{id}/comments", h.addComment)
		r.Get("/favorites", h.favorites)
		r.Post("/movies/{id}/favorite", h.addFavorite)
		r.Post("/movies/{id}/unfavorite", h.removeFavorite)
	})

	// Reading a movie's comments needs no session.
	r.Get("/movies/{id}/comments", h.movieComments)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Phone    string `json:"phone" validate:"max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

type memberLoginRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type memberPwdRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		h.respondError(w, "register member", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"title": "Member Login",
		"next":  r.URL.Query().Get("next"),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req memberLoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	m, err := h.service.Authenticate(r.Context(), req.Name, req.Password, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("member login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	sess := shared.MemberSessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("member session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetPrincipal(m.ID)

	http.Redirect(w, r, resumeTarget(r, "/"), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.MemberSessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, "member profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid multipart body")
		return
	}
	in := ProfileInput{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Phone: r.FormValue("phone"),
		Info:  r.FormValue("info"),
	}
	if f, header, err := r.FormFile("face"); err == nil {
		in.Face = &Upload{Name: header.Filename, Body: f}
	}
	m, err := h.service.UpdateProfile(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, "update member profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req memberPwdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangePassword(r.Context(), principal(r), req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "old password incorrect")
			return
		}
		h.logger.Error("member change password", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if sess := shared.MemberSessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) loginLog(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	result, err := h.logins.MemberLogins(r.Context(), principal(r), page, pageSize)
	if err != nil {
		h.logger.Error("member login log", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.AddComment(r.Context(), principal(r), movieID, req.Text)
	if err != nil {
		h.respondError(w, "add comment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) movieComments(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.MovieComments(r.Context(), movieID, page, pageSize)
	if err != nil {
		h.respondError(w, "list movie comments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"comments":   out,
		"pagination": pagination,
	})
}

func (h *Handler) ownComments(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.MemberComments(r.Context(), principal(r), page, pageSize)
	if err != nil {
		h.respondError(w, "list own comments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"comments":   out,
		"pagination": pagination,
	})
}

func (h *Handler) favorites(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	out, pagination, err := h.service.Favorites(r.Context(), principal(r), page, pageSize)
	if err != nil {
		h.respondError(w, "list favorites", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"favorites":  out,
		"pagination": pagination,
	})
}

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	f, created, err := h.service.AddFavorite(r.Context(), principal(r), movieID)
	if err != nil {
		h.respondError(w, "add favorite", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, f)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.RemoveFavorite(r.Context(), principal(r), movieID); err != nil {
		h.respondError(w, "remove favorite", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "removed"})
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

func principal(r *http.Request) int64 {
	if sess := shared.MemberSessionFromContext(r.Context()); sess != nil {
		return sess.Principal()
	}
	return 0
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// resumeTarget returns the validated next parameter or the fallback.
// The query parser has already percent-decoded the value once; a second
// decode would corrupt targets containing encoded characters. Only
// relative paths are honoured to prevent open redirects.
func resumeTarget(r *http.Request, fallback string) string {
	next := r.URL.Query().Get("next")
	if next == "" {
		return fallback
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	return next
}
