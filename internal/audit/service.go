package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Service coordinates timeline reads and retention.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of the audit trail. It fetches one row
// beyond the page to decide whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	entries, err := s.repo.Window(ctx, normalizeFilters(filters), pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}
	if entries == nil {
		entries = []Entry{}
	}

	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Entries: entries, Paging: paging}, nil
}

// Export returns every matching entry without paging. The handler's
// date-range cap keeps the result bounded.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.All(ctx, normalizeFilters(filters))
}

// PurgeOlderThan removes entries recorded before the cutoff. The
// retention worker calls this on a schedule.
func (s *Service) PurgeOlderThan(ctx context.Context, before time.Time) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("audit: repository not configured")
	}
	return s.repo.DeleteOlderThan(ctx, before)
}

func normalizeFilters(filters TimelineFilters) TimelineFilters {
	filters.Entity = strings.TrimSpace(filters.Entity)
	filters.Action = strings.TrimSpace(filters.Action)
	return filters
}
