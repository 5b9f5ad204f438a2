package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-commerce/meridian-commerce/internal/audit"
	jobmetrics "github.com/meridian-commerce/meridian-commerce/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const defaultRetentionDays = 90

// AuditRetentionJob prunes audit trail entries past the retention window.
type AuditRetentionJob struct {
	Audit   *audit.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAuditRetentionJob wires dependencies for the retention handler.
func NewAuditRetentionJob(auditSvc *audit.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditRetentionJob {
	return &AuditRetentionJob{
		Audit:   auditSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes audit retention tasks.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	tracker := j.metrics().Track(TaskAuditRetention)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("retention_days", payload.RetentionDays))
	logger.Info("starting audit retention")

	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	deleted, err := j.Audit.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("prune audit trail", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed audit retention", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return resultErr
}

func (j *AuditRetentionJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditRetention))
	}
	return slog.Default().With(slog.String("job", TaskAuditRetention))
}

func (j *AuditRetentionJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuditRetentionJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
