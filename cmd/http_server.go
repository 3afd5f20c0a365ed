package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/rogue-contacts/api"
	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/app"
	"github.com/frahmantamala/rogue-contacts/internal/auth"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/hashing"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/transport/rest"
	"github.com/frahmantamala/rogue-contacts/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

// resources are the long lived handles the server closes on shutdown.
type resources struct {
	deps  app.Dependencies
	pool  *hashing.Pool
	redis *redis.Client
}

func (r *resources) close() {
	r.pool.Shutdown()
	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.deps.Logger.Error("redis close error", "error", err)
		}
	}
	if err := r.deps.DB.Close(); err != nil {
		r.deps.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := api.Load(ctx); err != nil {
		return fmt.Errorf("invalid embedded openapi document: %w", err)
	}

	res, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer res.close()

	cfg := res.deps.Config
	log := res.deps.Logger

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.NewRouter(res.deps),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down HTTP server")
		shutdownCtx, cancel := internal.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := res.deps.EventBus.Drain(shutdownCtx); err != nil {
			log.Warn("event handlers still running at shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*resources, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Configure(config.Observability.Logging.Format, config.Observability.Logging.Level)

	bus := events.NewEventBus(log)
	if err := events.RegisterAuditLog(bus, log); err != nil {
		return nil, fmt.Errorf("failed to register audit log: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	healthChecks := map[string]rest.CheckFunc{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	var (
		revocations auth.RevocationStore
		redisClient *redis.Client
	)
	if config.Redis.Addr != "" {
		redisClient, err = auth.NewRedisClient(ctx, config.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		revocations = auth.NewRedisRevocationStore(redisClient)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		log.Warn("redis address not configured, token revocations are kept in memory")
		revocations = auth.NewMemoryRevocationStore()
	}

	pool := hashing.NewPool(hashing.PoolConfig{
		MaxWorkers:   config.Security.HashWorkers,
		JobQueueSize: config.Security.HashQueueSize,
	}, log)
	hasher := hashing.NewHasher(hashing.NewBCrypt(config.Security.BCryptCost), pool, hashing.NewPBKDF2(0))

	var metrics *observability.Metrics
	if config.Observability.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	return &resources{
		deps: app.Dependencies{
			Config:       config,
			DB:           db,
			Gorm:         gormDB,
			Revocations:  revocations,
			Hasher:       hasher,
			Metrics:      metrics,
			EventBus:     bus,
			HealthChecks: healthChecks,
			Logger:       log,
		},
		pool:  pool,
		redis: redisClient,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
}
