package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/gradconnect/backend/auth"
	"github.com/gradconnect/backend/config"
	"github.com/gradconnect/backend/handlers"
	"github.com/gradconnect/backend/internal/observability"
	"github.com/gradconnect/backend/middleware"
	"github.com/gradconnect/backend/repositories"
	"github.com/gradconnect/backend/repositories/postgres"
	"github.com/gradconnect/backend/services/accounts"
	"github.com/gradconnect/backend/services/audit"
	"github.com/gradconnect/backend/services/credentials"
	"github.com/gradconnect/backend/services/federation"
	"github.com/gradconnect/backend/services/profiles"
	"github.com/gradconnect/backend/services/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Observability
	Metrics         observability.Metrics
	MetricsRegistry *prometheus.Registry // nil when metrics are disabled

	// Audit trail; AuditService is nil when auditing is disabled
	AuditService *audit.AuditService
	Recorder     audit.Recorder

	// Core services
	Issuer     *tokens.Issuer
	Hasher     *credentials.Hasher
	Providers  *federation.Registry
	Accounts   *accounts.Service
	Federation *federation.Service
	Profiles   *profiles.Service

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter // nil when rate limiting is disabled
	AuthHandler    *handlers.AuthHandler
	OAuthHandler   *auth.Handler
	ProfileHandler *handlers.ProfileHandler
	UserHandler    *handlers.UserHandler
	HealthHandler  *handlers.HealthHandler

	closeOnce sync.Once
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	deps, err := NewDependenciesWithFactory(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires everything over an existing repository factory.
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Repos:       factory.NewRepositories(),
		TxManager:   factory.GetTransactionManager(),
	}

	deps.initMetrics(cfg)

	if err := deps.initAudit(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize audit: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		deps.stopAudit()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.Nop{}
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.MetricsRegistry = reg
	d.Metrics = observability.NewCollector(reg)
}

func (d *Dependencies) initAudit(cfg *config.Config) error {
	if !cfg.Audit.Enabled {
		d.Recorder = audit.Nop{}
		d.Logger.Info("audit trail disabled")
		return nil
	}

	svc := audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.Workers,
	})
	if err := svc.Start(); err != nil {
		return err
	}

	d.AuditService = svc
	d.Recorder = svc
	return nil
}

func (d *Dependencies) initServices(cfg *config.Config) error {
	issuer, err := tokens.NewIssuer(tokens.Config{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	d.Issuer = issuer
	d.Hasher = credentials.NewHasher(cfg.Auth.BcryptCost)

	d.Accounts = accounts.NewService(d.Repos.Users, d.Hasher, d.Issuer, d.Recorder, d.Metrics, d.Logger)
	d.Profiles = profiles.NewService(d.Repos, d.TxManager, d.Recorder, d.Logger)

	d.Providers = federation.NewRegistryFromConfig(cfg.OAuth)
	if len(d.Providers.Names()) == 0 {
		d.Logger.Warn("no identity providers configured, OAuth login disabled")
	} else {
		d.Logger.Info("identity providers registered", zap.Strings("providers", d.Providers.Names()))
	}
	d.Federation = federation.NewService(d.Providers, d.Repos.Users, d.Issuer, federation.Config{
		FrontendRedirectURL:    cfg.OAuth.FrontendRedirectURL,
		PlaceholderEmailDomain: cfg.OAuth.PlaceholderEmailDomain,
	}, d.Recorder, d.Metrics, d.Logger)

	return nil
}

func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Issuer, d.Accounts, d.Logger)
	if cfg.RateLimit.Enabled {
		d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, d.Logger)
	}

	d.AuthHandler = handlers.NewAuthHandler(d.Accounts, d.Logger)
	d.OAuthHandler = auth.NewHandler(d.Federation, d.Logger)
	d.ProfileHandler = handlers.NewProfileHandler(d.Profiles, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.Accounts, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
	if d.AuditService != nil {
		d.HealthHandler.WithAudit(d.AuditService)
	}
}

func (d *Dependencies) stopAudit() error {
	if d.AuditService == nil {
		return nil
	}
	return d.AuditService.Stop(d.Config.Audit.ShutdownTimeout)
}

// Close gracefully shuts down all dependencies. Queued audit entries are
// flushed before the database closes. Calls after the first are no-ops.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error

	d.closeOnce.Do(func() {
		d.Logger.Info("shutting down dependencies")

		if d.RateLimiter != nil {
			d.RateLimiter.Stop()
		}

		if err := d.stopAudit(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}

		if d.RepoFactory != nil {
			if err := d.RepoFactory.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close database: %w", err))
			} else {
				d.Logger.Info("database connection closed")
			}
		}

		_ = d.Logger.Sync()
	})

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
