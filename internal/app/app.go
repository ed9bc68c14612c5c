// Package app wires together all dependencies of the capability hub and
// manages their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/innospot/capability-hub/internal/config"
	intpostgres "github.com/innospot/capability-hub/internal/integration/repository/postgres"
	intservice "github.com/innospot/capability-hub/internal/integration/service"
	"github.com/innospot/capability-hub/internal/review/event"
	"github.com/innospot/capability-hub/internal/review/mailer/mock"
	revpostgres "github.com/innospot/capability-hub/internal/review/repository/postgres"
	revservice "github.com/innospot/capability-hub/internal/review/service"
	"github.com/innospot/capability-hub/migrations"
	"github.com/innospot/capability-hub/pkg/database"
	"github.com/innospot/capability-hub/pkg/health"
	"github.com/innospot/capability-hub/pkg/httpclient"
	pkgkafka "github.com/innospot/capability-hub/pkg/kafka"
	"github.com/innospot/capability-hub/pkg/tracing"
)

// App wires together all dependencies and runs the capability hub.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	reviews        *revservice.ReviewService
	integrations   *intservice.IntegrationService
	opsServer      *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "capability-hub",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "capability-hub")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the review stats cache. The cache degrades to
	// pass-through when Redis is unavailable, so startup continues.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, review stats cache disabled",
			slog.String("error", err.Error()),
		)
		redisClient = nil
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Review workflow dependency graph.
	reviewRepo := revpostgres.NewReviewRepository(pool)
	eventProducer := event.NewProducer(producer, logger)
	var statsCache *revservice.StatsCache
	if redisClient != nil {
		statsCache = revservice.NewStatsCache(redisClient, logger, cfg.StatsCacheTTL)
	}
	reviews := revservice.NewReviewService(
		reviewRepo,
		mock.NewMailer(logger),
		eventProducer,
		statsCache,
		logger,
		revservice.Config{
			TokenTTL:      cfg.VerificationTokenTTL,
			VerifyBaseURL: cfg.VerifyBaseURL,
		},
	)

	// Outbound HTTP client with circuit breaker for webhook tests and
	// connector probes.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.WebhookTestTimeout,
		MaxRetries:      0,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(
		baseClient,
		httpclient.DefaultCircuitBreakerConfig("capability-hub-outbound"),
		logger,
	)

	// Integration registry dependency graph.
	integrations := intservice.NewIntegrationService(
		intpostgres.NewIntegrationRepository(pool),
		intpostgres.NewAPIKeyRepository(pool),
		intpostgres.NewWebhookRepository(pool),
		intpostgres.NewConnectorRepository(pool),
		intpostgres.NewAnalyticsRepository(pool),
		cbClient,
		logger,
		intservice.Config{WebhookTestTimeout: cfg.WebhookTestTimeout},
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Ops listener: liveness, readiness and Prometheus metrics.
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", healthHandler.LivenessHandler())
	router.Get("/readyz", healthHandler.ReadinessHandler())
	router.Handle("/metrics", promhttp.Handler())

	opsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.OpsPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		reviews:        reviews,
		integrations:   integrations,
		opsServer:      opsServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Reviews returns the review workflow service.
func (a *App) Reviews() *revservice.ReviewService { return a.reviews }

// Integrations returns the integration registry service.
func (a *App) Integrations() *intservice.IntegrationService { return a.integrations }

// Run starts the ops HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting ops HTTP server",
			slog.String("addr", a.opsServer.Addr),
		)
		if err := a.opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. Ops HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.opsServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("ops server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
