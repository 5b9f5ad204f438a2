// Package audit exposes the read side of the administrative audit
// trail: a filterable timeline, CSV export and retention pruning.
// Writing entries is the job of shared.AuditLogger; this package never
// records anything itself.
package audit

import "time"

// Entry is one audit trail record. ActorEmail is resolved at read time
// and is empty when the acting account no longer exists.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actor_id"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	At         time.Time      `json:"at"`
}

// TimelineFilters narrows a timeline query. The window is [From, To);
// callers working with whole dates pass the day after the last wanted
// date as To. Zero ActorID and empty Entity/Action match everything.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo carries pagination metadata for one timeline page.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result is one page of timeline entries.
type Result struct {
	Entries []Entry    `json:"entries"`
	Paging  PagingInfo `json:"paging"`
}
