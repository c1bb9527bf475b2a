package chat

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/reelhouse/reelhouse/internal/platform/httpx"
	"github.com/reelhouse/reelhouse/internal/rbac"
)

// Handler wires the message relay endpoints.
type Handler struct {
	logger    *slog.Logger
	queue     *Queue
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, queue *Queue) *Handler {
	return &Handler{
		logger:    logger,
		queue:     queue,
		validator: validator.New(),
	}
}

// MountRoutes registers the relay routes. Reading a window is open;
// posting needs a member session.
func (h *Handler) MountRoutes(r chi.Router, gate rbac.MemberGate) {
	r.Get("/chat/{topic}", h.window)
	r.With(gate.RequireAuth).Post("/chat/{topic}", h.post)
}

type postRequest struct {
	Author string `json:"author" validate:"required,max=100"`
	Text   string `json:"text" validate:"required,max=500"`
	Color  string `json:"color" validate:"max=20"`
	Kind   string `json:"kind" validate:"max=50"`
	Origin string `json:"origin" validate:"max=100"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	msg, err := h.queue.Push(r.Context(), topic, Message{
		Author: req.Author,
		Text:   req.Text,
		Color:  req.Color,
		Kind:   req.Kind,
		Origin: req.Origin,
	})
	if err != nil {
		h.logger.Error("chat push", slog.String("topic", topic), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	start, end := windowParams(r)
	msgs, err := h.queue.Window(r.Context(), topic, start, end)
	if err != nil {
		h.logger.Error("chat window", slog.String("topic", topic), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func windowParams(r *http.Request) (int64, int64) {
	start, err := strconv.ParseInt(r.URL.Query().Get("start"), 10, 64)
	if err != nil {
		start = 0
	}
	end, err := strconv.ParseInt(r.URL.Query().Get("end"), 10, 64)
	if err != nil {
		end = Capacity - 1
	}
	return start, end
}
