package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-commerce/meridian-commerce/internal/access"
	"github.com/meridian-commerce/meridian-commerce/internal/audit"
	"github.com/meridian-commerce/meridian-commerce/internal/auth"
	"github.com/meridian-commerce/meridian-commerce/internal/authz"
	"github.com/meridian-commerce/meridian-commerce/internal/observability"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
	"github.com/meridian-commerce/meridian-commerce/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	AccessHandler  *access.Handler
	AuditHandler   *audit.Handler
	JobHandler     *jobs.Handler
	Guard          *authz.Guard
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
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

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything under /api is checked against the route authorization
	// table. Unknown paths fall through the guard and 404 as usual.
	r.Route("/api", func(api chi.Router) {
		if params.Guard != nil {
			api.Use(params.Guard.Middleware)
		}
		if params.AccessHandler != nil {
			api.Route("/access", params.AccessHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(api)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
