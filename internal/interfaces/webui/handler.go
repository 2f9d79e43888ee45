package webui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/puppy-bowl/internal/domain/player"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/riskibarqy/puppy-bowl/internal/platform/resilience"
	"github.com/riskibarqy/puppy-bowl/internal/session"
	"github.com/riskibarqy/puppy-bowl/internal/usecase"
	"github.com/riskibarqy/puppy-bowl/internal/view"
)

const maxFormBytes = 64 << 10

// HealthReporter exposes the state of the remote roster dependency.
type HealthReporter interface {
	CircuitState() resilience.CircuitState
}

type Handler struct {
	renderer  *view.Renderer
	registry  *session.Registry
	health    HealthReporter
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(renderer *view.Renderer, registry *session.Registry, health HealthReporter, logger *logging.Logger) *Handler {
	if renderer == nil {
		renderer = view.MustRenderer()
	}
	if logger == nil {
		logger = logging.Default()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("form"); name != "" {
			return name
		}
		return field.Name
	})

	return &Handler{
		renderer:  renderer,
		registry:  registry,
		health:    health,
		logger:    logger,
		validator: v,
	}
}

type createPlayerForm struct {
	Name     string `form:"name" validate:"required,max=100"`
	Breed    string `form:"breed" validate:"required,max=100"`
	ImageURL string `form:"imageUrl" validate:"omitempty,url,max=2048"`
	Status   string `form:"status" validate:"omitempty,oneof=bench field"`
}

type stateDTO struct {
	Mode     usecase.Mode `json:"mode"`
	Busy     bool         `json:"busy"`
	Page     view.Page    `json:"page"`
	Selected *int64       `json:"selectedId,omitempty"`
}

type healthDTO struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Remote   string `json:"remote,omitempty"`
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Healthz")
	defer span.End()

	out := healthDTO{Status: "ok"}
	if h.registry != nil {
		out.Sessions = h.registry.Len()
	}
	if h.health != nil {
		out.Remote = string(h.health.CircuitState())
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) Stylesheet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(view.Stylesheet())
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Index")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	controller.EnsureLoaded(ctx)
	h.renderPage(ctx, w, controller.Page())
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.State")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	page := controller.PeekPage()
	out := stateDTO{
		Mode: controller.Mode(),
		Busy: controller.Busy(),
		Page: page,
	}
	if page.Detail != nil {
		selected := page.Detail.ID
		out.Selected = &selected
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Refresh")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	h.respond(ctx, w, r, controller, controller.Load(ctx))
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Select")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	playerID, err := parsePlayerID(r)
	if err != nil {
		h.reject(ctx, w, r, controller, usecase.MsgNotFound, err)
		return
	}
	h.respond(ctx, w, r, controller, controller.Select(ctx, playerID))
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Back")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	h.respond(ctx, w, r, controller, controller.Back(ctx))
}

func (h *Handler) ConfirmRemove(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.ConfirmRemove")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	playerID, err := parsePlayerID(r)
	if err != nil {
		h.reject(ctx, w, r, controller, usecase.MsgNotFound, err)
		return
	}
	confirm, found := controller.Confirm(playerID)
	if !found {
		h.reject(ctx, w, r, controller, usecase.MsgNotFound, fmt.Errorf("%w: id=%d not in roster", usecase.ErrNotFound, playerID))
		return
	}

	if wantsJSON(r) {
		writeSuccess(ctx, w, http.StatusOK, confirm)
		return
	}
	h.render(ctx, w, func(out io.Writer) error {
		return h.renderer.RenderConfirm(out, confirm)
	})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.Remove")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}
	playerID, err := parsePlayerID(r)
	if err != nil {
		h.reject(ctx, w, r, controller, usecase.MsgNotFound, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.reject(ctx, w, r, controller, "Unable to read the request.", fmt.Errorf("%w: parse form: %v", usecase.ErrInvalidInput, err))
		return
	}
	if r.PostFormValue("confirm") != "yes" {
		// Declined: nothing is sent to the roster API.
		if wantsJSON(r) {
			writeError(ctx, w, fmt.Errorf("%w: removal was not confirmed", usecase.ErrInvalidInput), "Removal was not confirmed.")
			return
		}
		http.Redirect(w, r, view.HomePath, http.StatusSeeOther)
		return
	}

	h.respond(ctx, w, r, controller, controller.Remove(ctx, playerID))
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "webui.Handler.CreatePlayer")
	defer span.End()

	controller, ok := h.controller(ctx, w)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.reject(ctx, w, r, controller, "Unable to read the request.", fmt.Errorf("%w: parse form: %v", usecase.ErrInvalidInput, err))
		return
	}

	form := createPlayerForm{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Breed:    strings.TrimSpace(r.PostFormValue("breed")),
		ImageURL: strings.TrimSpace(r.PostFormValue("imageUrl")),
		Status:   strings.ToLower(strings.TrimSpace(r.PostFormValue("status"))),
	}
	if err := h.validateRequest(ctx, form); err != nil {
		msg := fmt.Sprintf(usecase.MsgInvalidCreate, validationDetail(err))
		h.reject(ctx, w, r, controller, msg, err)
		return
	}

	h.respond(ctx, w, r, controller, controller.Create(ctx, player.CreateInput{
		Name:     form.Name,
		Breed:    form.Breed,
		ImageURL: form.ImageURL,
		Status:   player.Status(form.Status),
	}))
}

func (h *Handler) validateRequest(ctx context.Context, req any) error {
	_, span := startSpan(ctx, "webui.Handler.validateRequest")
	defer span.End()

	if err := h.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: validation failed: %w", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) controller(ctx context.Context, w http.ResponseWriter) (*usecase.RosterController, bool) {
	s, ok := session.FromContext(ctx)
	if !ok || s.Controller == nil {
		h.logger.ErrorContext(ctx, "request reached a roster route without a session")
		writeInternalError(ctx, w)
		return nil, false
	}
	return s.Controller, true
}

// respond settles a finished action: JSON callers get the outcome, browsers
// are sent back to the roster page.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, r *http.Request, controller *usecase.RosterController, out usecase.Outcome) {
	if !wantsJSON(r) {
		http.Redirect(w, r, view.HomePath, http.StatusSeeOther)
		return
	}
	if out.OK() {
		writeSuccess(ctx, w, http.StatusOK, controller.Page())
		return
	}

	err := out.Err
	if err == nil {
		err = fmt.Errorf("action finished with outcome %s", out.Kind)
	}
	writeError(ctx, w, err, out.Message)
}

// reject reports a request refused before it reached the controller.
func (h *Handler) reject(ctx context.Context, w http.ResponseWriter, r *http.Request, controller *usecase.RosterController, message string, err error) {
	h.logger.WarnContext(ctx, "roster request rejected", "path", r.URL.Path, "error", err)
	if wantsJSON(r) {
		writeError(ctx, w, err, message)
		return
	}
	controller.Notify(view.NoticeError, message)
	http.Redirect(w, r, view.HomePath, http.StatusSeeOther)
}

func (h *Handler) renderPage(ctx context.Context, w http.ResponseWriter, page view.Page) {
	h.render(ctx, w, func(out io.Writer) error {
		return h.renderer.Render(out, page)
	})
}

// render relies on the renderer writing nothing when a template fails.
func (h *Handler) render(ctx context.Context, w http.ResponseWriter, fn func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := fn(w); err != nil {
		h.logger.ErrorContext(ctx, "render page failed", "error", err)
		writeInternalError(ctx, w)
	}
}

func parsePlayerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	playerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || playerID <= 0 {
		return 0, fmt.Errorf("%w: invalid player id %q", usecase.ErrInvalidInput, raw)
	}
	return playerID, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json")
}

func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid input"
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "oneof":
		return fe.Field() + " must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return fe.Field() + " is invalid"
	}
}
