package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DecisionMetrics records authorization outcomes. Implemented by
// observability.Metrics; nil disables recording.
type DecisionMetrics interface {
	RecordAuthzDecision(outcome string)
	RecordPermissionCache(result string)
	RecordSeederRun(result string)
}

// ResolverConfig groups Resolver dependencies. Store and Logger are
// required; the rest default sensibly.
type ResolverConfig struct {
	Store    Repository
	Logger   *slog.Logger
	Metrics  DecisionMetrics
	CacheTTL time.Duration
	Clock    func() time.Time
}

// Resolver computes effective permission sets with a process-local TTL
// cache. Concurrent resolutions for the same user may each hit the
// store before the first result lands in the cache; the reads are
// idempotent so the duplication is harmless.
type Resolver struct {
	store   Repository
	cache   *permissionCache
	logger  *slog.Logger
	metrics DecisionMetrics
	catalog PermissionSet
}

// NewResolver constructs a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   cfg.Store,
		cache:   newPermissionCache(cfg.CacheTTL, cfg.Clock),
		logger:  logger,
		metrics: cfg.Metrics,
		catalog: CatalogSet(),
	}
}

// EffectivePermissions returns the user's resolved permission set. A
// missing user yields an empty set so unauthenticated callers fail
// closed without an error path that could be mistaken for "allowed".
func (r *Resolver) EffectivePermissions(ctx context.Context, userID int64) (PermissionSet, error) {
	set, err := r.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set.Clone(), nil
}

// HasPermission reports whether the user's effective set contains the permission.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	set, err := r.resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(permission), nil
}

// HasAnyPermission reports whether the user holds at least one of the permissions.
func (r *Resolver) HasAnyPermission(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	set, err := r.resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.HasAny(permissions...), nil
}

// HasAllPermissions reports whether the user holds every permission listed.
func (r *Resolver) HasAllPermissions(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	set, err := r.resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.HasAll(permissions...), nil
}

// CheckDetailed re-derives the outcome for one permission directly
// from the store and reports its provenance. It never consults the
// cache: audit and diagnostic callers need current rows, not a
// memoized set. Precedence is super admin, then override, then role.
func (r *Resolver) CheckDetailed(ctx context.Context, userID int64, permission string) (Decision, error) {
	decision := Decision{Permission: permission, Reason: ReasonNoPermission}

	subject, err := r.store.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decision, nil
		}
		return Decision{}, err
	}

	if subject.SuperAdmin {
		decision.Allowed = true
		decision.Reason = ReasonSuperAdmin
		return decision, nil
	}

	override, err := r.store.OverrideFor(ctx, userID, permission)
	if err != nil {
		return Decision{}, err
	}
	if override != nil {
		if override.Granted {
			decision.Allowed = true
			decision.Reason = ReasonUserGrant
		} else {
			decision.Reason = ReasonUserDenial
		}
		return decision, nil
	}

	roles, err := r.store.GrantingRoles(ctx, userID, permission)
	if err != nil {
		return Decision{}, err
	}
	if len(roles) > 0 {
		decision.Allowed = true
		decision.Reason = ReasonRolePermission
		decision.Roles = roles
	}
	return decision, nil
}

// InvalidateUser drops the cached permission set for one user. Every
// mutation of a user's roles or overrides must call this before
// returning, or stale grants survive until the TTL runs out.
func (r *Resolver) InvalidateUser(userID int64) {
	r.cache.invalidate(userID)
}

func (r *Resolver) resolve(ctx context.Context, userID int64) (PermissionSet, error) {
	if set, ok := r.cache.get(userID); ok {
		r.recordCache("hit")
		return set, nil
	}
	r.recordCache("miss")

	subject, err := r.store.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PermissionSet{}, nil
		}
		return nil, err
	}

	if subject.SuperAdmin {
		set := r.catalog.Clone()
		r.cache.set(userID, set)
		return set, nil
	}

	names, err := r.store.RolePermissionNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := NewPermissionSet(names...)

	overrides, err := r.store.UserOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o.Granted {
			set.Add(o.Permission)
		} else {
			set.Remove(o.Permission)
		}
	}

	r.cache.set(userID, set)
	return set, nil
}

func (r *Resolver) recordCache(result string) {
	if r.metrics != nil {
		r.metrics.RecordPermissionCache(result)
	}
}
