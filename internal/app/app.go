// Package app wires repositories, services and handlers into the HTTP router.
package app

import (
	"log/slog"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/auth"
	"github.com/frahmantamala/rogue-contacts/internal/authz"
	"github.com/frahmantamala/rogue-contacts/internal/business"
	businessPostgres "github.com/frahmantamala/rogue-contacts/internal/business/postgres"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/frahmantamala/rogue-contacts/internal/role"
	rolePostgres "github.com/frahmantamala/rogue-contacts/internal/role/postgres"
	"github.com/frahmantamala/rogue-contacts/internal/transport"
	"github.com/frahmantamala/rogue-contacts/internal/transport/rest"
	"github.com/frahmantamala/rogue-contacts/internal/user"
	userPostgres "github.com/frahmantamala/rogue-contacts/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// Dependencies are the process-wide resources the router is built from.
// Gorm and DB must share one connection pool.
type Dependencies struct {
	Config       *internal.Config
	DB           *sqlx.DB
	Gorm         *gorm.DB
	Revocations  auth.RevocationStore
	Hasher       *hashing.Hasher
	Metrics      *observability.Metrics
	EventBus     *events.EventBus
	HealthChecks map[string]rest.CheckFunc
	Logger       *slog.Logger
}

func NewRouter(deps Dependencies) *chi.Mux {
	cfg := deps.Config
	base := transport.NewBaseHandler(deps.Logger)

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenTTL).
		WithRefreshTTL(cfg.Security.RefreshTTL)
	authService := auth.NewService(tokens, deps.Revocations, deps.Logger)

	locator := authz.NewLocator(deps.DB)
	gate := authz.NewGate(
		authz.NewBusinessResolver(deps.DB),
		authz.NewOrganizationResolver(deps.DB),
		deps.Metrics,
		deps.Logger,
	)

	roleRepo := rolePostgres.NewRoleRepository(deps.Gorm)
	roleService := role.NewService(roleRepo, locator, gate, deps.EventBus, deps.Logger)
	businessService := business.NewService(businessPostgres.NewBusinessRepository(deps.Gorm), roleRepo, locator, gate, deps.EventBus, deps.Logger)
	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), deps.Hasher, authService, deps.EventBus, deps.Metrics, deps.Logger)

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:     rest.NewHealthHandler(deps.HealthChecks),
		Auth:       auth.NewHandler(base, authService),
		User:       user.NewHandler(base, userService),
		Permission: permission.NewHandler(base),
		Business:   business.NewHandler(base, businessService),
		Role:       role.NewHandler(base, roleService),
	}, rest.Options{
		Logger:         deps.Logger,
		Metrics:        deps.Metrics,
		MetricsPath:    metricsPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsProduction:   cfg.IsProduction(),
		AuthRateLimit:  cfg.RateLimit.AuthRequests,
		AuthRateWindow: cfg.RateLimit.Window,
	})
	return router
}
