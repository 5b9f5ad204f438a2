package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskAuditRetention prunes audit trail entries past the retention
	// window.
	TaskAuditRetention = "audit:retention"
	// TaskSessionCleanup removes expired session records.
	TaskSessionCleanup = "sessions:cleanup"
)

// AuditRetentionPayload carries the retention window for one prune run.
type AuditRetentionPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditRetentionTask constructs an audit retention task.
func NewAuditRetentionTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditRetentionPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// NewSessionCleanupTask constructs a session cleanup task. It carries
// no payload.
func NewSessionCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskSessionCleanup, nil)
}
