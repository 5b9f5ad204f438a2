package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type stubTimelineService struct {
	result      Result
	entries     []Entry
	lastFilters TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	s.lastFilters = filters
	return s.entries, nil
}

func newTestHandler(service *stubTimelineService) *Handler {
	h := NewHandler(nil, service)
	h.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestTimelineDefaultsDateRange(t *testing.T) {
	service := &stubTimelineService{result: Result{Entries: []Entry{}, Paging: PagingInfo{Page: 1, PageSize: 20}}}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	rr := httptest.NewRecorder()
	handler.handleTimeline(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := service.lastFilters.From.Format("2006-01-02"); got != "2025-06-08" {
		t.Fatalf("expected default from 2025-06-08, got %s", got)
	}
	// To is widened by one day for the half-open window.
	if got := service.lastFilters.To.Format("2006-01-02"); got != "2025-06-16" {
		t.Fatalf("expected to bound 2025-06-16, got %s", got)
	}
	var body Result
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Paging.PageSize != 20 {
		t.Fatalf("expected page size 20, got %d", body.Paging.PageSize)
	}
}

func TestTimelineParsesFilters(t *testing.T) {
	service := &stubTimelineService{}
	handler := newTestHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/audit?from=2025-06-01&to=2025-06-10&actor_id=7&entity=role&action=role.created&page=2&page_size=10", nil)
	rr := httptest.NewRecorder()
	handler.handleTimeline(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	f := service.lastFilters
	if f.ActorID != 7 || f.Entity != "role" || f.Action != "role.created" {
		t.Fatalf("unexpected filters: %+v", f)
	}
	if f.Page != 2 || f.PageSize != 10 {
		t.Fatalf("unexpected paging: %+v", f)
	}
	if got := f.To.Format("2006-01-02"); got != "2025-06-11" {
		t.Fatalf("expected to bound 2025-06-11, got %s", got)
	}
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	cases := map[string]string{
		"bad to":        "/audit?to=junk",
		"bad from":      "/audit?from=15-06-2025",
		"from after to": "/audit?from=2025-06-20&to=2025-06-10",
		"range too big": "/audit?from=2025-01-01&to=2025-06-15",
		"bad actor":     "/audit?actor_id=-1",
		"bad page":      "/audit?page=zero",
		"bad page size": "/audit?page_size=0",
	}
	for name, target := range cases {
		handler := newTestHandler(&stubTimelineService{})
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		handler.handleTimeline(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rr.Code)
		}
	}
}

func TestExportWritesCSV(t *testing.T) {
	at := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	service := &stubTimelineService{entries: []Entry{{
		ID:         1,
		ActorID:    7,
		ActorEmail: "admin@store.test",
		Action:     "role.permissions_replaced",
		Entity:     "role",
		EntityID:   "3",
		Meta:       map[string]any{"name": "support"},
		At:         at,
	}}}
	handler := newTestHandler(service)
	router := chi.NewRouter()
	handler.MountRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/audit/export.csv?from=2025-06-01&to=2025-06-15", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ctype := rr.Header().Get("Content-Type"); !strings.Contains(ctype, "text/csv") {
		t.Fatalf("unexpected content type: %s", ctype)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "at,actor_id,actor_email,action,entity,entity_id,meta") {
		t.Fatalf("missing csv header: %s", body)
	}
	if !strings.Contains(body, "role.permissions_replaced") {
		t.Fatalf("missing entry row: %s", body)
	}
	if !strings.Contains(body, `"{""name"":""support""}"`) {
		t.Fatalf("missing meta column: %s", body)
	}
}

func TestExportRateLimited(t *testing.T) {
	handler := newTestHandler(&stubTimelineService{})
	router := chi.NewRouter()
	handler.MountRoutes(router)

	var last int
	for i := 0; i < exportRateLimit+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last)
	}
}
