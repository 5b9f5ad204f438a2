package audit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90

	exportRateLimit  = 10
	exportRateWindow = time.Minute
)

// TimelineService is the business contract the handler consumes.
type TimelineService interface {
	Timeline(ctx context.Context, filters TimelineFilters) (Result, error)
	Export(ctx context.Context, filters TimelineFilters) ([]Entry, error)
}

// Handler serves the audit trail endpoints. Permission checks happen
// upstream in the route guard.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service TimelineService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers the timeline and CSV export endpoints. Exports
// are rate limited per user because they bypass paging.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(exportRateLimit, exportRateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)
	r.Get("/audit", h.handleTimeline)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/audit/export.csv", h.handleExport)
	})
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load audit timeline", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	entries, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export audit timeline", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	if err := WriteCSV(w, entries); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

// parseFilters reads the query string. Dates are whole days; the To
// bound is widened by one day because the repository window is
// half-open.
func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, error) {
	now := h.now().UTC()
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if toStr == "" {
		toStr = now.Format("2006-01-02")
	}
	toTime, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return TimelineFilters{}, validationError{field: "to"}
	}
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	if fromStr == "" {
		fromStr = toTime.Add(-defaultDateRange).Format("2006-01-02")
	}
	fromTime, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return TimelineFilters{}, validationError{field: "from"}
	}
	if fromTime.After(toTime) {
		return TimelineFilters{}, validationError{field: "range"}
	}
	if toTime.Sub(fromTime) > maxDateRangeHours*time.Hour {
		return TimelineFilters{}, validationError{field: "range"}
	}

	var actorID int64
	if v := strings.TrimSpace(r.URL.Query().Get("actor_id")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			return TimelineFilters{}, validationError{field: "actor_id"}
		}
		actorID = parsed
	}

	page := 1
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return TimelineFilters{}, validationError{field: "page"}
		}
		page = parsed
	}
	pageSize := defaultPageSize
	if v := strings.TrimSpace(r.URL.Query().Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return TimelineFilters{}, validationError{field: "page_size"}
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		pageSize = parsed
	}

	return TimelineFilters{
		From:     fromTime,
		To:       toTime.AddDate(0, 0, 1),
		ActorID:  actorID,
		Entity:   strings.TrimSpace(r.URL.Query().Get("entity")),
		Action:   strings.TrimSpace(r.URL.Query().Get("action")),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var v validationError
	if errors.As(err, &v) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+v.field+" filter")
		return
	}
	h.handleServerError(w, "validate audit filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

type validationError struct {
	field string
}

func (validationError) Error() string {
	return "validation failed"
}

func rateLimitKey(r *http.Request) (string, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if user := strings.TrimSpace(sess.User()); user != "" {
			return "user:" + user, nil
		}
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
