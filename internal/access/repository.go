package access

import "context"

// Repository defines the persistence operations behind the
// administration API. Implementations map database-level conditions
// (missing rows, unique violations) to the httpx sentinels.
type Repository interface {
	ListPermissions(ctx context.Context) ([]PermissionInfo, error)

	// PermissionIDsByName resolves catalog names to IDs. Names missing
	// from the catalog are absent from the result map.
	PermissionIDsByName(ctx context.Context, names []string) (map[string]int64, error)

	ListRoles(ctx context.Context) ([]RoleSummary, error)
	GetRole(ctx context.Context, roleID int64) (*RoleSummary, error)
	RolePermissionNames(ctx context.Context, roleID int64) ([]string, error)
	CreateRole(ctx context.Context, name, displayName, description string) (*RoleSummary, error)
	UpdateRole(ctx context.Context, roleID int64, displayName, description string) (*RoleSummary, error)
	DeleteRole(ctx context.Context, roleID int64) (bool, error)

	// ReplaceRolePermissions swaps the role's permission set in one
	// transaction so concurrent resolutions never observe a half
	// applied matrix.
	ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error

	// RoleMemberIDs returns the user IDs holding the role, for cache
	// invalidation after role-level changes.
	RoleMemberIDs(ctx context.Context, roleID int64) ([]int64, error)

	ListUsers(ctx context.Context, filters UserListFilters) ([]UserSummary, error)
	CountUsers(ctx context.Context, filters UserListFilters) (int, error)
	GetUser(ctx context.Context, userID int64) (*UserSummary, error)
	UserRoles(ctx context.Context, userID int64) ([]UserRole, error)

	// AssignRole links a user to a role. Reports false when the pair
	// already existed.
	AssignRole(ctx context.Context, userID, roleID, assignedBy int64) (bool, error)
	RemoveRole(ctx context.Context, userID, roleID int64) (bool, error)

	UserOverrides(ctx context.Context, userID int64) ([]OverrideDetail, error)
	CreateOverride(ctx context.Context, userID, permissionID int64, granted bool, assignedBy int64) error
	DeleteOverride(ctx context.Context, userID int64, permission string) (bool, error)

	UserStats(ctx context.Context) (UserStats, error)
	RoleStats(ctx context.Context) (RoleStats, error)
	OverrideStats(ctx context.Context) (OverrideStats, error)
	CountPermissions(ctx context.Context) (int, error)
}
