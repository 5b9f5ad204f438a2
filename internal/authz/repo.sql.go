package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
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

// FindSubject loads the user fields consulted during resolution.
func (r *PGRepository) FindSubject(ctx context.Context, userID int64) (*Subject, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, is_super_admin, COALESCE(role, ''), created_at
FROM users
WHERE id = $1`, userID)

	var subject Subject
	if err := row.Scan(&subject.ID, &subject.SuperAdmin, &subject.LegacyRole, &subject.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &subject, nil
}

// RolePermissionNames returns the deduplicated permission names granted
// through the user's roles.
func (r *PGRepository) RolePermissionNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT p.name
FROM permissions p
JOIN role_permissions rp ON rp.permission_id = p.id
JOIN user_roles ur ON ur.role_id = rp.role_id
WHERE ur.user_id = $1
ORDER BY p.name`, userID)
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

// UserOverrides returns every override row for the user.
func (r *PGRepository) UserOverrides(ctx context.Context, userID int64) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
SELECT o.user_id, p.name, o.granted, COALESCE(o.assigned_by, 0), o.created_at
FROM user_permission_overrides o
JOIN permissions p ON p.id = o.permission_id
WHERE o.user_id = $1
ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.UserID, &o.Permission, &o.Granted, &o.AssignedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overrides, nil
}

// GrantingRoles returns the names of the user's roles that carry the permission.
func (r *PGRepository) GrantingRoles(ctx context.Context, userID int64, permission string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
SELECT DISTINCT r.name
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
JOIN role_permissions rp ON rp.role_id = r.id
JOIN permissions p ON p.id = rp.permission_id
WHERE ur.user_id = $1 AND p.name = $2
ORDER BY r.name`, userID, permission)
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

// OverrideFor returns the user's override for one permission, or nil
// when none exists.
func (r *PGRepository) OverrideFor(ctx context.Context, userID int64, permission string) (*Override, error) {
	row := r.pool.QueryRow(ctx, `
SELECT o.user_id, p.name, o.granted, COALESCE(o.assigned_by, 0), o.created_at
FROM user_permission_overrides o
JOIN permissions p ON p.id = o.permission_id
WHERE o.user_id = $1 AND p.name = $2`, userID, permission)

	var o Override
	if err := row.Scan(&o.UserID, &o.Permission, &o.Granted, &o.AssignedBy, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// CountPermissions reports how many catalog rows are persisted.
func (r *PGRepository) CountPermissions(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// InsertPermission persists one catalog entry, skipping on duplicate name.
func (r *PGRepository) InsertPermission(ctx context.Context, p Permission) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO permissions (name, display_name, description, resource, action, category, is_sensitive)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO NOTHING`,
		p.Name, p.DisplayName, p.Description, p.Resource, p.Action, p.Category, p.Sensitive)
	return err
}

// InsertRole persists one system role, skipping on duplicate name.
func (r *PGRepository) InsertRole(ctx context.Context, seed RoleSeed) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO roles (name, display_name, description, is_system)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (name) DO NOTHING`,
		seed.Name, seed.DisplayName, seed.Description)
	return err
}

// LinkRolePermission attaches a permission to a role by name. The
// select produces no row when either name is missing, so unknown
// permission names are skipped rather than failing the seed run.
func (r *PGRepository) LinkRolePermission(ctx context.Context, roleName, permission string) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO role_permissions (role_id, permission_id)
SELECT r.id, p.id
FROM roles r, permissions p
WHERE r.name = $1 AND p.name = $2
ON CONFLICT DO NOTHING`, roleName, permission)
	return err
}

// PromoteLegacyAdmin flips is_super_admin on the earliest-created user
// whose legacy role column reads "admin". A second call finds the flag
// already set and changes nothing.
func (r *PGRepository) PromoteLegacyAdmin(ctx context.Context) (int64, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE users
SET is_super_admin = TRUE, updated_at = NOW()
WHERE id = (
	SELECT id FROM users
	WHERE role = 'admin'
	ORDER BY created_at, id
	LIMIT 1
)
AND NOT is_super_admin
RETURNING id`)

	var userID int64
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return userID, nil
}
