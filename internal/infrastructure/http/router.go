package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/infrastructure/http/handlers"
	"github.com/praxishq/praxis/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler          *handlers.AuthHandler
	HealthHandler        *handlers.HealthHandler
	UsersHandler         *handlers.UsersHandler
	OrganizationsHandler *handlers.OrganizationsHandler
	InvitationsHandler   *handlers.InvitationsHandler
	ImpersonationHandler *handlers.ImpersonationHandler
	RequireJWT           func(http.Handler) http.Handler
	CORSAllowedOrigins   []string
	APIVersion           string
	Log                  zerolog.Logger
	Secure               func(http.Handler) http.Handler
	IPRateLimit          func(http.Handler) http.Handler
	ActorRateLimit       func(http.Handler) http.Handler
	Metrics              bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(chimid.SetHeader("Content-Type", "application/json"))
	if cfg.APIVersion != "" {
		r.Use(middleware.APIVersion(cfg.APIVersion))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins, nil, nil))
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/auth/login", cfg.AuthHandler.Login)

	// Everything below requires a valid access token.
	r.Group(func(r chi.Router) {
		r.Use(cfg.RequireJWT)
		if cfg.ActorRateLimit != nil {
			r.Use(cfg.ActorRateLimit)
		}

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UsersHandler.List)
			r.Get("/{id}", cfg.UsersHandler.Get)
			r.Patch("/{id}", cfg.UsersHandler.Update)
			r.Post("/{id}/ban", cfg.UsersHandler.Ban)
			r.Post("/{id}/unban", cfg.UsersHandler.Unban)
			// Direct provisioning is an admin operation; client_admin invites
			// instead.
			r.With(middleware.RequireAdminFamily).Post("/", cfg.UsersHandler.Create)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", cfg.OrganizationsHandler.List)
			r.Get("/{id}", cfg.OrganizationsHandler.Get)
			r.With(middleware.RequireAdminFamily).Patch("/{id}", cfg.OrganizationsHandler.Update)
			r.Get("/{id}/invitations", cfg.InvitationsHandler.ListPending)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/", cfg.InvitationsHandler.Create)
			r.Post("/{id}/cancel", cfg.InvitationsHandler.Cancel)
		})

		r.Route("/impersonation", func(r chi.Router) {
			// No role gate here: the manager distinguishes an insufficient role
			// from a nested-session conflict, and stop must always be reachable.
			r.Post("/start", cfg.ImpersonationHandler.Start)
			r.Post("/stop", cfg.ImpersonationHandler.Stop)
			r.Get("/", cfg.ImpersonationHandler.Active)
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
