package authz

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"log/slog"

	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
)

// Denial explains why a request was rejected. It wraps the matching
// httpx sentinel so callers can classify it with errors.Is.
type Denial struct {
	Unauthenticated bool
	UserID          int64
	Missing         []string
}

func (d *Denial) Error() string {
	if d.Unauthenticated {
		return "authz: unauthenticated"
	}
	if len(d.Missing) > 0 {
		return "authz: missing permissions " + strings.Join(d.Missing, ", ")
	}
	return "authz: forbidden"
}

func (d *Denial) Unwrap() error {
	if d.Unauthenticated {
		return httpx.ErrUnauthorized
	}
	return httpx.ErrForbidden
}

// AuditRecorder persists records of denied sensitive actions.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CurrentUserID extracts the acting user from the request session.
func CurrentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GuardConfig wires the guard's collaborators. Resolver and Table are
// required; Seeder, Metrics and Audit degrade to no-ops when nil.
type GuardConfig struct {
	Resolver *Resolver
	Table    *RouteTable
	Seeder   *Seeder
	Logger   *slog.Logger
	Metrics  DecisionMetrics
	Audit    AuditRecorder
}

// Guard enforces permission requirements for HTTP handlers, either per
// route via RequireAll/RequireAny or across a whole subtree via
// Middleware and the compiled route table.
type Guard struct {
	resolver *Resolver
	table    *RouteTable
	seeder   *Seeder
	logger   *slog.Logger
	metrics  DecisionMetrics
	audit    AuditRecorder
}

// NewGuard constructs a Guard.
func NewGuard(cfg GuardConfig) *Guard {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		resolver: cfg.Resolver,
		table:    cfg.Table,
		seeder:   cfg.Seeder,
		logger:   logger,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
	}
}

// Middleware guards every route under the mounted subtree using the
// route table. Requests whose path and verb carry no requirement pass
// through untouched; authentication for the subtree as a whole is the
// session middleware's job.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.seeder != nil {
			g.seeder.AutoSeed(r.Context())
		}
		req := g.table.Lookup(r.URL.Path, r.Method)
		if req.Unrestricted() {
			next.ServeHTTP(w, r)
			return
		}
		g.enforce(w, r, req, next)
	})
}

// RequireAll ensures the current user holds every named permission.
func (g *Guard) RequireAll(perms ...string) func(http.Handler) http.Handler {
	req := Requirement{All: normalizePermissions(perms)}
	return g.requirementMiddleware(req)
}

// RequireAny ensures the current user holds at least one of the named
// permissions.
func (g *Guard) RequireAny(perms ...string) func(http.Handler) http.Handler {
	req := Requirement{Any: normalizePermissions(perms)}
	return g.requirementMiddleware(req)
}

func (g *Guard) requirementMiddleware(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if req.Unrestricted() {
				next.ServeHTTP(w, r)
				return
			}
			g.enforce(w, r, req, next)
		})
	}
}

func (g *Guard) enforce(w http.ResponseWriter, r *http.Request, req Requirement, next http.Handler) {
	userID, ok := CurrentUserID(r)
	if !ok {
		g.deny(w, r, &Denial{Unauthenticated: true})
		return
	}
	granted, err := g.resolver.EffectivePermissions(r.Context(), userID)
	if err != nil {
		g.logger.Error("authz resolve permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		g.recordDecision("error")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if !req.Satisfied(granted) {
		g.deny(w, r, &Denial{UserID: userID, Missing: req.Missing(granted)})
		return
	}
	g.recordDecision("allowed")
	next.ServeHTTP(w, r)
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, d *Denial) {
	if d.Unauthenticated {
		g.recordDecision("unauthenticated")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	g.recordDecision("forbidden")
	g.auditSensitiveDenial(r, d)
	httpx.ProblemExtra(w, http.StatusForbidden, "Forbidden", "insufficient permissions", map[string]any{
		"missing_permissions": d.Missing,
	})
}

// auditSensitiveDenial records a trail entry when the denial involved
// at least one sensitive permission.
func (g *Guard) auditSensitiveDenial(r *http.Request, d *Denial) {
	if g.audit == nil {
		return
	}
	var sensitive []string
	for _, name := range d.Missing {
		if p, ok := CatalogPermission(name); ok && p.Sensitive {
			sensitive = append(sensitive, name)
		}
	}
	if len(sensitive) == 0 {
		return
	}
	entry := shared.AuditLog{
		ActorID:  d.UserID,
		Action:   "authz.denied",
		Entity:   "route",
		EntityID: r.Method + " " + NormalizePath(r.URL.Path),
		Meta:     map[string]any{"missing_permissions": sensitive},
	}
	if err := g.audit.Record(r.Context(), entry); err != nil {
		g.logger.Error("authz audit denial", slog.Any("error", err))
	}
}

func (g *Guard) recordDecision(outcome string) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordAuthzDecision(outcome)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	sort.Strings(normalized)
	return normalized
}
