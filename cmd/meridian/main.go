package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-commerce/meridian-commerce/internal/access"
	"github.com/meridian-commerce/meridian-commerce/internal/app"
	"github.com/meridian-commerce/meridian-commerce/internal/audit"
	"github.com/meridian-commerce/meridian-commerce/internal/auth"
	"github.com/meridian-commerce/meridian-commerce/internal/authz"
	"github.com/meridian-commerce/meridian-commerce/internal/observability"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/cache"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/db"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
	"github.com/meridian-commerce/meridian-commerce/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	authzRepo := authz.NewRepository(dbpool)
	resolver := authz.NewResolver(authz.ResolverConfig{
		Store:    authzRepo,
		Logger:   logger,
		Metrics:  metrics,
		CacheTTL: cfg.PermissionCacheTTL,
	})
	seeder := authz.NewSeeder(authzRepo, logger, metrics)
	guard := authz.NewGuard(authz.GuardConfig{
		Resolver: resolver,
		Table:    authz.NewRouteTable(authz.DefaultRoutes()),
		Seeder:   seeder,
		Logger:   logger,
		Metrics:  metrics,
		Audit:    auditLogger,
	})

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager, csrfManager)

	accessRepo := access.NewRepository(dbpool)
	accessService := access.NewService(access.ServiceConfig{
		Repo:     accessRepo,
		Resolver: resolver,
		Audit:    auditLogger,
		Logger:   logger,
	})
	accessHandler := access.NewHandler(logger, accessService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AccessHandler:  accessHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Guard:          guard,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
