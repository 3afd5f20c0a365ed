package rest

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/rogue-contacts/api"
	"github.com/frahmantamala/rogue-contacts/internal/auth"
	"github.com/frahmantamala/rogue-contacts/internal/business"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/frahmantamala/rogue-contacts/internal/role"
	"github.com/frahmantamala/rogue-contacts/internal/transport/middleware"
	"github.com/frahmantamala/rogue-contacts/internal/transport/swagger"
	"github.com/frahmantamala/rogue-contacts/internal/user"
	"github.com/go-chi/chi"
)

type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	User       *user.Handler
	Permission *permission.Handler
	Business   *business.Handler
	Role       *role.Handler
}

type Options struct {
	Logger         *slog.Logger
	Metrics        *observability.Metrics
	MetricsPath    string
	AllowedOrigins string
	IsProduction   bool
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.SecurityHeaders(opts.IsProduction))
	router.Use(opts.Metrics.Middleware)

	if opts.Metrics != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, opts.Metrics.Handler())
	}

	router.Get(swagger.SpecPath, swagger.SpecHandler(api.Spec))
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Get("/permissions/{kind}", h.Permission.List)

		r.Group(func(pub chi.Router) {
			pub.Use(middleware.RateLimitByIP(opts.AuthRateLimit, opts.AuthRateWindow))
			pub.Post("/users/register", h.User.Register)
			pub.Post("/users/login", h.User.Login)
			pub.Post("/users/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Post("/users/logout", h.Auth.Logout)
			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/users/me/businesses", h.Business.ListOwned)

			pr.Route("/businesses", func(br chi.Router) {
				br.Post("/", h.Business.Create)
				br.Get("/{businessId:[0-9]+}", h.Business.GetByID)

				br.Route("/{owner}/{business}", func(br chi.Router) {
					br.Get("/", h.Business.Get)
					br.Delete("/", h.Business.Delete)

					br.Route("/roles", func(rr chi.Router) {
						rr.Post("/", h.Role.Create)
						rr.Get("/", h.Role.List)
						rr.Patch("/{roleId}", h.Role.Update)
						rr.Delete("/{roleId}", h.Role.Delete)
						rr.Put("/{roleId}/members/{username}", h.Role.Assign)
						rr.Delete("/{roleId}/members/{username}", h.Role.Unassign)
					})
				})
			})
		})
	})
}
