package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/infra/config"
	"github.com/campuspoint/auth-service/internal/infra/database"
	"github.com/campuspoint/auth-service/internal/infra/kafka"
	redisinfra "github.com/campuspoint/auth-service/internal/infra/redis"
	"github.com/campuspoint/auth-service/internal/infra/security"
	redisrepo "github.com/campuspoint/auth-service/internal/repository/redis"

	"github.com/campuspoint/auth-service/internal/repository/postgres"
	"github.com/campuspoint/auth-service/internal/transport/http/handlers"
	"github.com/campuspoint/auth-service/internal/transport/http/middleware"
	"github.com/campuspoint/auth-service/internal/transport/http/routes"
	"github.com/campuspoint/auth-service/internal/usecase"
)

// App owns the service's wiring and lifecycle.
type App struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafka.Producer
	server   *http.Server
}

// New wires the whole service. Postgres being unreachable is fatal; Kafka
// being unconfigured degrades to the logging stub publisher.
func New(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*App, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	var (
		publisher port.EventPublisher
		producer  *kafka.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init kafka: %w", err)
		}
		publisher = producer
	} else {
		log.Warn("no kafka brokers configured, using stub publisher")
		publisher = kafka.NewStubPublisher(log)
	}

	repos := postgres.NewRepositories(pool)
	rateLimits := redisrepo.NewRateLimitRepository(redisClient.Raw())

	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost, cfg.Security.MaxConcurrentHashes)
	validator := security.DefaultPasswordValidator(cfg.Security.PasswordMinLength, cfg.Security.PasswordMinScore)

	tokens, err := security.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	authService := usecase.NewAuthService(repos.Identities, hasher, tokens, publisher, usecase.LockoutPolicy{
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	}, log)

	registrationService := usecase.NewRegistrationService(
		repos.Identities, hasher, tokens, validator, publisher,
		usecase.RegistrationPolicy{
			AllowPrivilegedSelfRegistration: cfg.Security.AllowPrivilegedSelfRegistration,
		}, log,
	)

	resetService := usecase.NewPasswordResetService(
		repos.Identities, repos.ResetTokens, hasher, validator, publisher,
		cfg.Security.ResetTokenTTL, log,
	)

	identityService := usecase.NewIdentityService(repos.Identities, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	healthHandler := handlers.NewHealthHandler(cfg.App.Name,
		handlers.WithReadinessCheck("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		}),
		handlers.WithReadinessCheck("redis", redisClient.HealthCheck),
	)

	engine := routes.NewEngine(routes.Dependencies{
		Config:      cfg,
		Log:         log,
		Auth:        handlers.NewAuthHandler(registrationService, authService, log),
		Password:    handlers.NewPasswordHandler(resetService, log),
		Identity:    handlers.NewIdentityHandler(identityService, log),
		Health:      healthHandler,
		Verifier:    middleware.AuthServiceVerifier{Auth: authService},
		StateGate:   middleware.StateGate{Identities: identityService},
		RateLimiter: middleware.NewRateLimiter(rateLimits, cfg.RateLimit.WindowDuration, log),
		Registry:    registry,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		server:   server,
	}, nil
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown failed", zap.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("kafka shutdown failed", zap.Error(err))
		}
	}

	if err := a.redis.Close(); err != nil {
		a.log.Error("redis shutdown failed", zap.Error(err))
	}

	a.pool.Close()
	a.log.Info("shutdown complete")

	return nil
}
