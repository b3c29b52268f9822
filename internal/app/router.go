package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/festahub/festahub/internal/audit"
	"github.com/festahub/festahub/internal/auth"
	"github.com/festahub/festahub/internal/files"
	"github.com/festahub/festahub/internal/formanswers"
	"github.com/festahub/festahub/internal/forms"
	"github.com/festahub/festahub/internal/invitations"
	"github.com/festahub/festahub/internal/news"
	"github.com/festahub/festahub/internal/observability"
	"github.com/festahub/festahub/internal/projects"
	"github.com/festahub/festahub/internal/reqctx"
	"github.com/festahub/festahub/internal/shared"
	"github.com/festahub/festahub/internal/users"
	"github.com/festahub/festahub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	ReqCtx         reqctx.Middleware

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	ProjectsHandler    *projects.Handler
	NewsHandler        *news.Handler
	FormsHandler       *forms.Handler
	FormAnswersHandler *formanswers.Handler
	InvitationsHandler *invitations.Handler
	FilesHandler       *files.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler

	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// NewRouter constructs the chi.Router with application defaults.
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

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		g, ctx := errgroup.WithContext(r.Context())
		if params.Pool != nil {
			g.Go(func() error { return params.Pool.Ping(ctx) })
		}
		if params.Redis != nil {
			g.Go(func() error { return params.Redis.Ping(ctx).Err() })
		}
		if err := g.Wait(); err != nil {
			params.Logger.Warn("readiness check failed", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Every route below resolves the acting user from the session.
	r.Group(func(r chi.Router) {
		r.Use(params.ReqCtx.Attach)
		r.Use(params.ReqCtx.RequireUser)

		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
		r.Route("/news", params.NewsHandler.MountRoutes)
		r.Route("/forms", params.FormsHandler.MountRoutes)
		r.Route("/form-answers", params.FormAnswersHandler.MountRoutes)
		r.Route("/invitations", params.InvitationsHandler.MountRoutes)
		r.Route("/files", params.FilesHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
