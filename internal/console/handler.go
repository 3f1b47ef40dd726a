// Package console generalizes the per-screen HTTP surface: every history and
// moderation screen is an instance of Handler with its own record type,
// filters and fetch strategy.
package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opsdesk/opsdesk/internal/listing"
	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/review"
	"github.com/opsdesk/opsdesk/internal/shared"
)

// ScreenConfig wires one screen.
type ScreenConfig[T review.Reviewable] struct {
	Name     string
	Logger   *slog.Logger
	Browser  func() (*listing.Browser[T], error)
	IdleTTL  time.Duration
	Workflow *review.Workflow
	Resolver *review.Resolver[T]
	Cache    *CollectionCache
}

// Handler serves one screen's list, detail and moderation endpoints. The
// browser registry keys on the operator session, so each operator owns their
// screen's filter and page state exclusively.
type Handler[T review.Reviewable] struct {
	name     string
	logger   *slog.Logger
	registry *listing.Registry[T]
	workflow *review.Workflow
	resolver *review.Resolver[T]
	cache    *CollectionCache
	validate *validator.Validate
}

// NewHandler builds a screen handler.
func NewHandler[T review.Reviewable](cfg ScreenConfig[T]) *Handler[T] {
	return &Handler[T]{
		name:     cfg.Name,
		logger:   cfg.Logger,
		registry: listing.NewRegistry(cfg.IdleTTL, cfg.Browser),
		workflow: cfg.Workflow,
		resolver: cfg.Resolver,
		cache:    cfg.Cache,
		validate: validator.New(),
	}
}

// MountRoutes registers the screen routes.
func (h *Handler[T]) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Delete("/", h.unmount)
	r.Post("/page", h.setPage)
	r.Post("/filters", h.applyFilter)
	r.Post("/filters/clear", h.clearFilters)
	r.Post("/refresh", h.refresh)
	r.Get("/{id}", h.detail)
	if h.workflow != nil {
		r.Post("/{id}/approve", h.stageApprove)
		r.Post("/{id}/reject", h.stageReject)
		r.Post("/confirm", h.confirm)
		r.Post("/dismiss", h.dismiss)
	}
}

type listResponse[T any] struct {
	listing.View[T]
	Notifications []shared.FlashMessage `json:"notifications,omitempty"`
}

func (h *Handler[T]) list(w http.ResponseWriter, r *http.Request) {
	browser, created, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if created {
		if err := browser.Mount(r.Context()); err != nil && errors.Is(err, shared.ErrSessionExpired) {
			h.respondError(w, err)
			return
		}
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) unmount(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	h.registry.Release(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[T]) setPage(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Page int `json:"page" validate:"min=1"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := browser.SetPage(r.Context(), req.Page); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) applyFilter(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Key   string `json:"key" validate:"required"`
		Value string `json:"value"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := browser.ApplyFilter(r.Context(), req.Key, req.Value); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) clearFilters(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := browser.ClearFilters(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) refresh(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	h.cache.Invalidate(r.Context(), h.name)
	if err := browser.Refetch(r.Context()); err != nil && errors.Is(err, shared.ErrSessionExpired) {
		h.respondError(w, err)
		return
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) detail(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	summary, found := browser.Find(func(rec T) bool { return rec.ReviewID() == id })
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not loaded on this screen")
		return
	}
	if h.resolver == nil {
		httpx.JSON(w, http.StatusOK, summary)
		return
	}
	detail, err := h.resolver.Resolve(r.Context(), id, summary)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler[T]) stageApprove(w http.ResponseWriter, r *http.Request) {
	h.stage(w, r, review.DecisionApprove)
}

func (h *Handler[T]) stageReject(w http.ResponseWriter, r *http.Request) {
	h.stage(w, r, review.DecisionReject)
}

func (h *Handler[T]) stage(w http.ResponseWriter, r *http.Request, decision review.Decision) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	rec, found := browser.Find(func(rec T) bool { return rec.ReviewID() == id })
	if !found {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not loaded on this screen")
		return
	}
	confirmation, err := h.workflow.Stage(r.Context(), rec, decision)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, confirmation)
}

func (h *Handler[T]) confirm(w http.ResponseWriter, r *http.Request) {
	browser, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	var req struct {
		Token          string   `json:"token" validate:"required"`
		Note           string   `json:"note" validate:"max=500"`
		Reason         string   `json:"reason" validate:"max=500"`
		ApprovedAmount *float64 `json:"approvedAmount" validate:"omitempty,gt=0"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	refetch := func(ctx context.Context) error {
		h.cache.Invalidate(ctx, h.name)
		return browser.Refetch(ctx)
	}
	err := h.workflow.Confirm(r.Context(), review.ConfirmInput{
		Token:          req.Token,
		ActorID:        sess.User(),
		Note:           req.Note,
		Reason:         req.Reason,
		ApprovedAmount: req.ApprovedAmount,
	}, refetch)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondView(w, r, browser)
}

func (h *Handler[T]) dismiss(w http.ResponseWriter, r *http.Request) {
	_, _, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.workflow.Dismiss(r.Context(), req.Token); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// acquire resolves the operator's browser for this screen, enforcing an
// authenticated session.
func (h *Handler[T]) acquire(w http.ResponseWriter, r *http.Request) (*listing.Browser[T], bool, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return nil, false, false
	}
	browser, created, err := h.registry.Acquire(sess.ID)
	if err != nil {
		h.logger.Error("acquire browser", slog.String("screen", h.name), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return nil, false, false
	}
	return browser, created, true
}

func (h *Handler[T]) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler[T]) respondView(w http.ResponseWriter, r *http.Request, browser *listing.Browser[T]) {
	var notifications []shared.FlashMessage
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		notifications = sess.PopFlashes()
	}
	httpx.JSON(w, http.StatusOK, listResponse[T]{View: browser.Snapshot(), Notifications: notifications})
}

func (h *Handler[T]) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrSessionExpired):
		httpx.Problem(w, http.StatusUnauthorized, "Session Expired", "sign in again")
	case errors.Is(err, review.ErrNotPending):
		httpx.Problem(w, http.StatusConflict, "Already Resolved", "the record is no longer pending")
	case errors.Is(err, review.ErrConfirmationNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "confirmation expired or already used")
	case errors.Is(err, review.ErrReasonRequired),
		errors.Is(err, review.ErrInvalidAmount),
		errors.Is(err, listing.ErrPredicatesUnsupported),
		errors.Is(err, listing.ErrUnknownFilter):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		// Fetch/action failures already raised a notification; the view
		// still renders with last-good data.
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "the platform backend did not accept the request")
	}
}
