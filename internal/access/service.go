package access

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-commerce/meridian-commerce/internal/authz"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
)

// PermissionResolver is the slice of the authz resolver the service
// consumes: reads for the diagnostic endpoints and invalidation after
// every permission-affecting mutation.
type PermissionResolver interface {
	EffectivePermissions(ctx context.Context, userID int64) (authz.PermissionSet, error)
	CheckDetailed(ctx context.Context, userID int64, permission string) (authz.Decision, error)
	InvalidateUser(userID int64)
}

// ServiceConfig groups Service dependencies. Repo and Resolver are
// required; Audit and Logger default to no-op and slog.Default.
type ServiceConfig struct {
	Repo     Repository
	Resolver PermissionResolver
	Audit    authz.AuditRecorder
	Logger   *slog.Logger
}

// Service implements the administration workflows on top of the
// repository, keeping the resolver cache consistent with every write.
type Service struct {
	repo     Repository
	resolver PermissionResolver
	audit    authz.AuditRecorder
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     cfg.Repo,
		resolver: cfg.Resolver,
		audit:    cfg.Audit,
		logger:   logger,
	}
}

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

func normalizePermission(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ListPermissions returns the persisted catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]PermissionInfo, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []PermissionInfo{}
	}
	return perms, nil
}

// ListRoles returns every role with aggregate counts.
func (s *Service) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []RoleSummary{}
	}
	return roles, nil
}

// GetRole returns one role with its permission names.
func (s *Service) GetRole(ctx context.Context, roleID int64) (*RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	names, err := s.repo.RolePermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return &RoleDetail{RoleSummary: *role, Permissions: names}, nil
}

// CreateRole creates a custom role, optionally with an initial
// permission set. New roles have no members, so no cache entries can
// reference them yet.
func (s *Service) CreateRole(ctx context.Context, actorID int64, input CreateRoleInput) (*RoleDetail, error) {
	name := strings.ToLower(strings.TrimSpace(input.Name))
	if !roleNamePattern.MatchString(name) {
		return nil, fmt.Errorf("role name %q: %w", input.Name, httpx.ErrValidation)
	}

	permissionIDs, permissionNames, err := s.resolvePermissions(ctx, input.Permissions)
	if err != nil {
		return nil, err
	}

	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(input.DisplayName), strings.TrimSpace(input.Description))
	if err != nil {
		return nil, err
	}
	if len(permissionIDs) > 0 {
		if err := s.repo.ReplaceRolePermissions(ctx, role.ID, permissionIDs); err != nil {
			return nil, err
		}
		role.PermissionCount = len(permissionIDs)
	}

	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "role.created",
		Entity:   "role",
		EntityID: strconv.FormatInt(role.ID, 10),
		Meta:     map[string]any{"name": role.Name, "permissions": permissionNames},
	})
	return &RoleDetail{RoleSummary: *role, Permissions: permissionNames}, nil
}

// UpdateRole changes the display fields of a role. The permission
// matrix is untouched, so cached resolutions stay valid.
func (s *Service) UpdateRole(ctx context.Context, actorID, roleID int64, input UpdateRoleInput) (*RoleDetail, error) {
	role, err := s.repo.UpdateRole(ctx, roleID, strings.TrimSpace(input.DisplayName), strings.TrimSpace(input.Description))
	if err != nil {
		return nil, err
	}
	names, err := s.repo.RolePermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}

	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "role.updated",
		Entity:   "role",
		EntityID: strconv.FormatInt(role.ID, 10),
		Meta:     map[string]any{"name": role.Name},
	})
	return &RoleDetail{RoleSummary: *role, Permissions: names}, nil
}

// DeleteRole removes a custom role. Memberships cascade away, so every
// member's cached resolution is invalidated. System roles are refused.
func (s *Service) DeleteRole(ctx context.Context, actorID, roleID int64) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.System {
		return fmt.Errorf("system role %q cannot be deleted: %w", role.Name, httpx.ErrValidation)
	}

	members, err := s.repo.RoleMemberIDs(ctx, roleID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.DeleteRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("role %d: %w", roleID, httpx.ErrNotFound)
	}

	s.invalidateUsers(members...)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "role.deleted",
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     map[string]any{"name": role.Name, "members": len(members)},
	})
	return nil
}

// ReplaceRolePermissions swaps the role's permission set and
// invalidates every member's cached resolution.
func (s *Service) ReplaceRolePermissions(ctx context.Context, actorID, roleID int64, permissions []string) (*RoleDetail, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	permissionIDs, permissionNames, err := s.resolvePermissions(ctx, permissions)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceRolePermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, err
	}
	members, err := s.repo.RoleMemberIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	s.invalidateUsers(members...)

	role.PermissionCount = len(permissionIDs)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "role.permissions_replaced",
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     map[string]any{"name": role.Name, "permissions": permissionNames},
	})
	return &RoleDetail{RoleSummary: *role, Permissions: permissionNames}, nil
}

// RolePermissionNames returns the permission names granted to a role.
func (s *Service) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	names, err := s.repo.RolePermissionNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ListUsers returns one page of users.
func (s *Service) ListUsers(ctx context.Context, filters UserListFilters) (*UserPage, error) {
	if filters.PerPage <= 0 {
		filters.PerPage = 20
	}
	if filters.PerPage > 100 {
		filters.PerPage = 100
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	filters.Query = strings.TrimSpace(filters.Query)

	users, err := s.repo.ListUsers(ctx, filters)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []UserSummary{}
	}
	total, err := s.repo.CountUsers(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &UserPage{
		Users:      users,
		Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
	}, nil
}

// UserRoles returns the user's role memberships.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	memberships, err := s.repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if memberships == nil {
		memberships = []UserRole{}
	}
	return memberships, nil
}

// AssignRole adds a role membership. Assigning an already held role is
// a no-op rather than an error.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("role %d: %w", roleID, err)
	}

	assigned, err := s.repo.AssignRole(ctx, userID, roleID, actorID)
	if err != nil {
		return err
	}
	if !assigned {
		return nil
	}

	s.invalidateUsers(userID)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.role_assigned",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role": role.Name},
	})
	return nil
}

// RemoveRole drops a role membership and invalidates the user.
func (s *Service) RemoveRole(ctx context.Context, actorID, userID, roleID int64) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return fmt.Errorf("role %d: %w", roleID, err)
	}

	removed, err := s.repo.RemoveRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("user %d does not hold role %q: %w", userID, role.Name, httpx.ErrNotFound)
	}

	s.invalidateUsers(userID)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.role_removed",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"role": role.Name},
	})
	return nil
}

// UserOverrides returns the user's override rows.
func (s *Service) UserOverrides(ctx context.Context, userID int64) ([]OverrideDetail, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	overrides, err := s.repo.UserOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	if overrides == nil {
		overrides = []OverrideDetail{}
	}
	return overrides, nil
}

// CreateOverride grants or denies one permission for one user,
// independent of role membership. Flipping an existing override
// requires removing it first; the duplicate maps to ErrDuplicate.
func (s *Service) CreateOverride(ctx context.Context, actorID, userID int64, input CreateOverrideInput) (*OverrideDetail, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	name := normalizePermission(input.Permission)
	ids, err := s.repo.PermissionIDsByName(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	permissionID, ok := ids[name]
	if !ok {
		return nil, fmt.Errorf("permission %q: %w", input.Permission, httpx.ErrNotFound)
	}

	if err := s.repo.CreateOverride(ctx, userID, permissionID, input.Granted, actorID); err != nil {
		return nil, err
	}

	s.invalidateUsers(userID)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.override_created",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"permission": name, "granted": input.Granted},
	})

	overrides, err := s.repo.UserOverrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if o.Permission == name {
			return &o, nil
		}
	}
	catalog, _ := authz.CatalogPermission(name)
	return &OverrideDetail{Permission: name, DisplayName: catalog.DisplayName, Granted: input.Granted, Sensitive: catalog.Sensitive, AssignedBy: actorID}, nil
}

// DeleteOverride removes one override by permission name.
func (s *Service) DeleteOverride(ctx context.Context, actorID, userID int64, permission string) error {
	name := normalizePermission(permission)
	removed, err := s.repo.DeleteOverride(ctx, userID, name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("override %q for user %d: %w", name, userID, httpx.ErrNotFound)
	}

	s.invalidateUsers(userID)
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.override_removed",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"permission": name},
	})
	return nil
}

// EffectiveForUser resolves the user's effective permission set.
func (s *Service) EffectiveForUser(ctx context.Context, userID int64) (*EffectiveResult, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	set, err := s.resolver.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &EffectiveResult{
		UserID:       userID,
		IsSuperAdmin: user.IsSuperAdmin,
		Permissions:  set.Names(),
	}, nil
}

// CheckUser runs a detailed store-backed check for one permission. The
// semantics mirror the resolver: unknown users and unknown permission
// names come back as a no_permission decision, not an error.
func (s *Service) CheckUser(ctx context.Context, userID int64, permission string) (authz.Decision, error) {
	return s.resolver.CheckDetailed(ctx, userID, normalizePermission(permission))
}

// Overview aggregates counts across users, roles and overrides.
func (s *Service) Overview(ctx context.Context) (*OverviewStats, error) {
	var stats OverviewStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Users, err = s.repo.UserStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Roles, err = s.repo.RoleStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Overrides, err = s.repo.OverrideStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Permissions, err = s.repo.CountPermissions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// resolvePermissions normalizes, deduplicates and resolves permission
// names to IDs. Any name missing from the catalog fails the call.
func (s *Service) resolvePermissions(ctx context.Context, names []string) ([]int64, []string, error) {
	seen := make(map[string]struct{}, len(names))
	clean := make([]string, 0, len(names))
	for _, name := range names {
		normalized := normalizePermission(name)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		clean = append(clean, normalized)
	}
	sort.Strings(clean)
	if len(clean) == 0 {
		return nil, []string{}, nil
	}

	ids, err := s.repo.PermissionIDsByName(ctx, clean)
	if err != nil {
		return nil, nil, err
	}
	resolved := make([]int64, 0, len(clean))
	for _, name := range clean {
		id, ok := ids[name]
		if !ok {
			return nil, nil, fmt.Errorf("permission %q: %w", name, httpx.ErrNotFound)
		}
		resolved = append(resolved, id)
	}
	return resolved, clean, nil
}

func (s *Service) invalidateUsers(ids ...int64) {
	if s.resolver == nil {
		return
	}
	for _, id := range ids {
		s.resolver.InvalidateUser(id)
	}
}

func (s *Service) recordAudit(ctx context.Context, entry shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("access audit record", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
