package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/teamtodo/teamtodo/internal/auth"
	"github.com/teamtodo/teamtodo/internal/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger        *slog.Logger
	Resolver      *auth.Resolver
	Cookies       auth.CookieConfig
	CORS          middleware.CORSConfig
	IsDevelopment bool
	MaxBodySize   int64

	// LoginLimiter guards register and login per client IP.
	LoginLimiter     middleware.Limiter
	RateLimitEnabled bool

	Index         *Handler
	Health        *HealthHandler
	Users         *UserHandler
	Teams         *TeamHandler
	Assignments   *AssignmentHandler
	Notifications *NotificationHandler
	Metrics       http.Handler
}

// NewRouter builds the chi router: global middleware, identity resolution
// for /api/, and the account, team and assignment routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	r.Use(middleware.Identity(middleware.IdentityConfig{
		Resolver: cfg.Resolver,
		Cookies:  cfg.Cookies,
		Logger:   cfg.Logger,
	}))

	r.Get("/", cfg.Index.Index)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	loginLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  cfg.Logger,
		Limiter: cfg.LoginLimiter,
		Enabled: cfg.RateLimitEnabled,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.With(loginLimit).Post("/register", cfg.Users.Register)
			r.With(loginLimit).Post("/login", cfg.Users.Login)
			r.Post("/logout", cfg.Users.Logout)

			r.With(middleware.RequirePrincipal).Get("/me", cfg.Users.Me)
			r.With(middleware.RequirePrincipal).Post("/me", cfg.Users.UpdateMe)
		})

		r.With(middleware.RequirePrincipal).Get("/notifications", cfg.Notifications.List)

		r.Route("/teams", func(r chi.Router) {
			r.Use(middleware.RequirePrincipal)

			r.Post("/", cfg.Teams.Create)
			r.Get("/my", cfg.Teams.My)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Use(middleware.ValidIDParams("teamID"))

				r.Get("/", cfg.Teams.Get)
				r.Patch("/", cfg.Teams.Update)
				r.Delete("/", cfg.Teams.Delete)

				r.Get("/members", cfg.Teams.Members)
				r.Post("/members", cfg.Teams.AddMember)
				r.With(middleware.ValidIDParams("userID")).Patch("/members/{userID}/role", cfg.Teams.UpdateRole)
				r.With(middleware.ValidIDParams("userID")).Delete("/members/{userID}", cfg.Teams.RemoveMember)

				r.Get("/assignments", cfg.Assignments.TeamAssignments)
				r.Route("/todos/{todoID}", func(r chi.Router) {
					r.Use(middleware.ValidIDParams("todoID"))

					r.Post("/assign", cfg.Assignments.Assign)
					r.Delete("/assign", cfg.Assignments.Unassign)
					r.Get("/assignees", cfg.Assignments.Assignees)
					r.Put("/assignees", cfg.Assignments.SetAssignees)
				})
			})
		})
	})

	r.NotFound(cfg.Index.NotFound)
	r.MethodNotAllowed(cfg.Index.MethodNotAllowed)

	return r
}
