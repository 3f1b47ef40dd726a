// Package auth is the thin edge in front of the upstream's operator login.
// It exchanges credentials for a bearer token and keeps that token in the
// Redis-backed session; everything else about the token lifecycle belongs to
// the upstream.
package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opsdesk/opsdesk/internal/platform/httpx"
	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/upstream"
)

// Handler serves login and logout.
type Handler struct {
	logger   *slog.Logger
	client   *upstream.Client
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	validate *validator.Validate
}

// NewHandler builds the auth handler.
func NewHandler(logger *slog.Logger, client *upstream.Client, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:   logger,
		client:   client,
		sessions: sessions,
		csrf:     csrf,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/session", h.session)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginUpstreamResponse struct {
	Data struct {
		Token    string `json:"token"`
		Operator struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"operator"`
	} `json:"data"`
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var res loginUpstreamResponse
	if err := h.client.PostAnon(r.Context(), "auth/login", map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}, &res); err != nil {
		h.logger.Warn("operator login failed", slog.String("email", req.Email), slog.Any("error", err))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}

	token := res.Data.Token
	if token == "" {
		token = res.Token
	}
	if token == "" {
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "login response carried no token")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetToken(token)
	sess.SetUser(pickOperatorID(res, req.Email))

	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"operator":  sess.User(),
		"csrfToken": csrfToken,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessions.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

// session reports whether the operator holds a live session, so the frontend
// can decide between console and login entry point.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || !sess.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return
	}
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"operator":  sess.User(),
		"csrfToken": csrfToken,
	})
}

func pickOperatorID(res loginUpstreamResponse, fallback string) string {
	if res.Data.Operator.ID != "" {
		return res.Data.Operator.ID
	}
	if res.Data.Operator.Email != "" {
		return res.Data.Operator.Email
	}
	return fallback
}
