package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-commerce/meridian-commerce/internal/auth"
	jobmetrics "github.com/meridian-commerce/meridian-commerce/internal/jobs"
)

// SessionCleanupJob removes session records whose expiry has passed.
type SessionCleanupJob struct {
	Auth    *auth.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionCleanupJob wires dependencies for the cleanup handler.
func NewSessionCleanupJob(authSvc *auth.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionCleanupJob {
	return &SessionCleanupJob{Auth: authSvc, Logger: logger, Metrics: metrics}
}

// Handle processes session cleanup tasks.
func (j *SessionCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Auth == nil {
		return errors.New("session cleanup: handler not configured")
	}

	tracker := j.metrics().Track(TaskSessionCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting session cleanup")

	removed, err := j.Auth.PurgeExpiredSessions(ctx)
	if err != nil {
		resultErr = err
		logger.Error("purge expired sessions", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed session cleanup", slog.Int64("removed", removed))
	return resultErr
}

func (j *SessionCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionCleanup))
	}
	return slog.Default().With(slog.String("job", TaskSessionCleanup))
}

func (j *SessionCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
