package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/bonus"
	"github.com/opsdesk/opsdesk/internal/console"
	"github.com/opsdesk/opsdesk/internal/giftcards"
	"github.com/opsdesk/opsdesk/internal/history"
	"github.com/opsdesk/opsdesk/internal/kyc"
	"github.com/opsdesk/opsdesk/internal/observability"
	"github.com/opsdesk/opsdesk/internal/payouts"
	"github.com/opsdesk/opsdesk/internal/shared"
	"github.com/opsdesk/opsdesk/internal/trades"
	"github.com/opsdesk/opsdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler *auth.Handler
	JobsHandler *jobs.Handler
	Screens     console.Deps
}

// NewRouter constructs the chi.Router with opsdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
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
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/screens", func(r chi.Router) {
		r.Route("/giftcards", giftcards.NewHandler(params.Screens).MountRoutes)
		r.Route("/trades", trades.NewHandler(params.Screens).MountRoutes)
		r.Route("/payouts", payouts.NewHandler(params.Screens).MountRoutes)
		r.Route("/kyc", kyc.NewHandler(params.Screens).MountRoutes)
		r.Route("/bonus", bonus.NewHandler(params.Screens).MountRoutes)
		for name, handler := range history.NewHandlers(params.Screens) {
			r.Route("/history/"+name, handler.MountRoutes)
		}
	})

	return r
}
