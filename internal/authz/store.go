package authz

import "context"

// Repository defines the persistence operations the resolver and
// seeder need. Reads join across the role and override tables; writes
// are conflict-tolerant so seeding stays idempotent under races.
type Repository interface {
	// FindSubject loads the user fields consulted during resolution.
	// Returns ErrNotFound when the user does not exist.
	FindSubject(ctx context.Context, userID int64) (*Subject, error)

	// RolePermissionNames returns the deduplicated permission names
	// granted through the user's roles.
	RolePermissionNames(ctx context.Context, userID int64) ([]string, error)

	// UserOverrides returns every override row for the user.
	UserOverrides(ctx context.Context, userID int64) ([]Override, error)

	// GrantingRoles returns the names of the user's roles that carry
	// the permission. Used for provenance reporting.
	GrantingRoles(ctx context.Context, userID int64, permission string) ([]string, error)

	// OverrideFor returns the user's override for one permission, or
	// nil when none exists.
	OverrideFor(ctx context.Context, userID int64, permission string) (*Override, error)

	// CountPermissions reports how many catalog rows are persisted.
	CountPermissions(ctx context.Context) (int, error)

	// InsertPermission persists one catalog entry, skipping on
	// duplicate name.
	InsertPermission(ctx context.Context, p Permission) error

	// InsertRole persists one system role, skipping on duplicate name.
	InsertRole(ctx context.Context, seed RoleSeed) error

	// LinkRolePermission attaches a permission to a role by name. Pairs
	// that already exist and permission names that are not persisted
	// yet are skipped silently.
	LinkRolePermission(ctx context.Context, roleName, permission string) error

	// PromoteLegacyAdmin flips is_super_admin on the earliest-created
	// user whose legacy role column reads "admin". Returns the promoted
	// user ID, or zero when no promotion happened.
	PromoteLegacyAdmin(ctx context.Context) (int64, error)
}
