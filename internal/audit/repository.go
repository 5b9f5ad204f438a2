package audit

import (
	"context"
	"time"
)

// Repository reads and prunes audit_logs rows.
type Repository interface {
	// Window returns one page of entries matching the filters, newest
	// first.
	Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
	// All returns every entry matching the filters, newest first.
	All(ctx context.Context, filters TimelineFilters) ([]Entry, error)
	// DeleteOlderThan removes entries recorded before the cutoff and
	// reports how many rows went away.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
