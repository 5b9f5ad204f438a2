package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-commerce/meridian-commerce/internal/platform/db"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ListPermissions returns the persisted catalog ordered by category and name.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]PermissionInfo, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, display_name, COALESCE(description, ''), resource, action, category, is_sensitive
FROM permissions
ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []PermissionInfo
	for rows.Next() {
		var p PermissionInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.DisplayName, &p.Description, &p.Resource, &p.Action, &p.Category, &p.Sensitive); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// PermissionIDsByName resolves catalog names to IDs.
func (r *PGRepository) PermissionIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	if len(names) == 0 {
		return map[string]int64{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT name, id FROM permissions WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64, len(names))
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

const roleColumns = `
r.id, r.name, r.display_name, COALESCE(r.description, ''), r.is_system, r.created_at, r.updated_at,
(SELECT COUNT(*) FROM role_permissions rp WHERE rp.role_id = r.id) AS permission_count,
(SELECT COUNT(*) FROM user_roles ur WHERE ur.role_id = r.id) AS member_count`

func scanRole(row pgx.Row) (*RoleSummary, error) {
	var role RoleSummary
	err := row.Scan(
		&role.ID,
		&role.Name,
		&role.DisplayName,
		&role.Description,
		&role.System,
		&role.CreatedAt,
		&role.UpdatedAt,
		&role.PermissionCount,
		&role.MemberCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// ListRoles returns every role, system roles first.
func (r *PGRepository) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles r ORDER BY r.is_system DESC, r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []RoleSummary
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRole fetches one role by primary key.
func (r *PGRepository) GetRole(ctx context.Context, roleID int64) (*RoleSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles r WHERE r.id = $1`, roleID)
	return scanRole(row)
}

// RolePermissionNames returns the permission names granted to the role.
func (r *PGRepository) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.name
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// CreateRole inserts a custom (non-system) role.
func (r *PGRepository) CreateRole(ctx context.Context, name, displayName, description string) (*RoleSummary, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO roles (name, display_name, description, is_system)
VALUES ($1, $2, $3, FALSE)
RETURNING id, name, display_name, COALESCE(description, ''), is_system, created_at, updated_at, 0, 0`,
		name, displayName, description)

	role, err := scanRole(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("role %q: %w", name, httpx.ErrDuplicate)
		}
		return nil, err
	}
	return role, nil
}

// UpdateRole changes the display fields of a role.
func (r *PGRepository) UpdateRole(ctx context.Context, roleID int64, displayName, description string) (*RoleSummary, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE roles SET display_name = $2, description = $3, updated_at = NOW() WHERE id = $1`,
		roleID, displayName, description)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, httpx.ErrNotFound
	}
	return r.GetRole(ctx, roleID)
}

// DeleteRole removes a role; role_permissions and user_roles rows
// cascade. Reports false when the role did not exist.
func (r *PGRepository) DeleteRole(ctx context.Context, roleID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReplaceRolePermissions swaps the role's permission set transactionally.
func (r *PGRepository) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			if _, err := tx.Exec(ctx, `
INSERT INTO role_permissions (role_id, permission_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, roleID, permissionID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoleMemberIDs returns the IDs of users holding the role.
func (r *PGRepository) RoleMemberIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

const userColumns = `
u.id, u.email, COALESCE(u.name, ''), u.is_super_admin, u.is_active, u.created_at,
COALESCE(ARRAY_AGG(r.name ORDER BY r.name) FILTER (WHERE r.id IS NOT NULL), '{}')`

const userJoins = `
FROM users u
LEFT JOIN user_roles ur ON ur.user_id = u.id
LEFT JOIN roles r ON r.id = ur.role_id`

func scanUserSummary(rows pgx.Row) (*UserSummary, error) {
	var user UserSummary
	err := rows.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.IsSuperAdmin,
		&user.IsActive,
		&user.CreatedAt,
		&user.Roles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	if user.Roles == nil {
		user.Roles = []string{}
	}
	return &user, nil
}

// ListUsers returns one page of users with their role names aggregated.
func (r *PGRepository) ListUsers(ctx context.Context, filters UserListFilters) ([]UserSummary, error) {
	limit := filters.PerPage
	if limit <= 0 {
		limit = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+userJoins+`
WHERE ($1 = '' OR u.email ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%')
GROUP BY u.id
ORDER BY u.id
LIMIT $2 OFFSET $3`, filters.Query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		user, err := scanUserSummary(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers reports how many users match the filters.
func (r *PGRepository) CountUsers(ctx context.Context, filters UserListFilters) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM users u
WHERE ($1 = '' OR u.email ILIKE '%' || $1 || '%' OR u.name ILIKE '%' || $1 || '%')`, filters.Query).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetUser fetches one user with aggregated role names.
func (r *PGRepository) GetUser(ctx context.Context, userID int64) (*UserSummary, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+userJoins+`
WHERE u.id = $1
GROUP BY u.id`, userID)
	return scanUserSummary(row)
}

// UserRoles returns the user's role memberships.
func (r *PGRepository) UserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	rows, err := r.pool.Query(ctx, `
SELECT r.id, r.name, r.display_name, COALESCE(ur.assigned_by, 0), ur.created_at
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = $1
ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []UserRole
	for rows.Next() {
		var m UserRole
		if err := rows.Scan(&m.RoleID, &m.Name, &m.DisplayName, &m.AssignedBy, &m.AssignedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return memberships, nil
}

// AssignRole links a user to a role. The insert is conflict-tolerant;
// false means the membership already existed.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO user_roles (user_id, role_id, assigned_by)
VALUES ($1, $2, NULLIF($3, 0))
ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID, assignedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveRole unlinks a user from a role. Reports false when the pair
// did not exist.
func (r *PGRepository) RemoveRole(ctx context.Context, userID, roleID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UserOverrides returns the user's override rows with catalog metadata.
func (r *PGRepository) UserOverrides(ctx context.Context, userID int64) ([]OverrideDetail, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.name, p.display_name, o.granted, p.is_sensitive, COALESCE(o.assigned_by, 0), o.created_at
FROM user_permission_overrides o
JOIN permissions p ON p.id = o.permission_id
WHERE o.user_id = $1
ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []OverrideDetail
	for rows.Next() {
		var o OverrideDetail
		if err := rows.Scan(&o.Permission, &o.DisplayName, &o.Granted, &o.Sensitive, &o.AssignedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overrides, nil
}

// CreateOverride inserts a new override row. A second override for the
// same (user, permission) pair maps to ErrDuplicate; flipping the
// granted flag requires deleting the old row first.
func (r *PGRepository) CreateOverride(ctx context.Context, userID, permissionID int64, granted bool, assignedBy int64) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO user_permission_overrides (user_id, permission_id, granted, assigned_by)
VALUES ($1, $2, $3, NULLIF($4, 0))`, userID, permissionID, granted, assignedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("override for user %d: %w", userID, httpx.ErrDuplicate)
		}
		return err
	}
	return nil
}

// DeleteOverride removes an override by permission name. Reports false
// when no such override exists.
func (r *PGRepository) DeleteOverride(ctx context.Context, userID int64, permission string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM user_permission_overrides o
USING permissions p
WHERE p.id = o.permission_id AND o.user_id = $1 AND p.name = $2`, userID, permission)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UserStats aggregates user counts.
func (r *PGRepository) UserStats(ctx context.Context) (UserStats, error) {
	var stats UserStats
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_active),
       COUNT(*) FILTER (WHERE is_super_admin)
FROM users`).Scan(&stats.Total, &stats.Active, &stats.SuperAdmins)
	if err != nil {
		return UserStats{}, err
	}
	return stats, nil
}

// RoleStats aggregates role counts.
func (r *PGRepository) RoleStats(ctx context.Context) (RoleStats, error) {
	var stats RoleStats
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_system) FROM roles`).Scan(&stats.Total, &stats.System)
	if err != nil {
		return RoleStats{}, err
	}
	return stats, nil
}

// OverrideStats aggregates override counts.
func (r *PGRepository) OverrideStats(ctx context.Context) (OverrideStats, error) {
	var stats OverrideStats
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE o.granted),
       COUNT(*) FILTER (WHERE NOT o.granted),
       COUNT(*) FILTER (WHERE o.granted AND p.is_sensitive)
FROM user_permission_overrides o
JOIN permissions p ON p.id = o.permission_id`).Scan(&stats.Total, &stats.Grants, &stats.Denials, &stats.SensitiveGrants)
	if err != nil {
		return OverrideStats{}, err
	}
	return stats, nil
}

// CountPermissions reports how many catalog rows are persisted.
func (r *PGRepository) CountPermissions(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
