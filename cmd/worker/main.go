package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/meridian-commerce/meridian-commerce/internal/app"
	"github.com/meridian-commerce/meridian-commerce/internal/audit"
	"github.com/meridian-commerce/meridian-commerce/internal/auth"
	jobmetrics "github.com/meridian-commerce/meridian-commerce/internal/jobs"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/db"
	"github.com/meridian-commerce/meridian-commerce/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	auditService := audit.NewService(audit.NewRepository(pool))
	retentionJob := jobs.NewAuditRetentionJob(auditService, logger, metrics)

	authService := auth.NewService(auth.NewRepository(pool))
	cleanupJob := jobs.NewSessionCleanupJob(authService, logger, metrics)

	retentionTask, err := jobs.NewAuditRetentionTask(cfg.AuditRetentionDays)
	if err != nil {
		logger.Error("build retention task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask := jobs.NewSessionCleanupTask()

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditRetention, Handler: retentionJob.Handle},
			{Type: jobs.TaskSessionCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: retentionTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 * * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
