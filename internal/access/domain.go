// Package access exposes the administration API for roles, role
// permission assignment, user role membership and per-user permission
// overrides. Every mutation funnels through the service layer so the
// resolver cache is invalidated for each affected user.
package access

import (
	"time"

	"github.com/meridian-commerce/meridian-commerce/internal/shared"
)

// PermissionInfo describes one catalog entry for listing.
type PermissionInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Category    string `json:"category"`
	Sensitive   bool   `json:"is_sensitive"`
}

// RoleSummary describes a role with aggregate counts.
type RoleSummary struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name"`
	Description     string    `json:"description"`
	System          bool      `json:"is_system"`
	PermissionCount int       `json:"permission_count"`
	MemberCount     int       `json:"member_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RoleDetail extends the summary with the granted permission names.
type RoleDetail struct {
	RoleSummary
	Permissions []string `json:"permissions"`
}

// UserSummary describes a user with role membership for listing.
type UserSummary struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []UserSummary     `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// UserRole is one role membership row for a user.
type UserRole struct {
	RoleID      int64     `json:"role_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	AssignedBy  int64     `json:"assigned_by,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// OverrideDetail is one per-user permission override row.
type OverrideDetail struct {
	Permission  string    `json:"permission"`
	DisplayName string    `json:"display_name"`
	Granted     bool      `json:"granted"`
	Sensitive   bool      `json:"is_sensitive"`
	AssignedBy  int64     `json:"assigned_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EffectiveResult is the resolved permission set for one user.
type EffectiveResult struct {
	UserID       int64    `json:"user_id"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	Permissions  []string `json:"permissions"`
}

// UserStats aggregates user counts for the overview.
type UserStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	SuperAdmins int `json:"super_admins"`
}

// RoleStats aggregates role counts for the overview.
type RoleStats struct {
	Total  int `json:"total"`
	System int `json:"system"`
}

// OverrideStats aggregates override counts for the overview.
type OverrideStats struct {
	Total           int `json:"total"`
	Grants          int `json:"grants"`
	Denials         int `json:"denials"`
	SensitiveGrants int `json:"sensitive_grants"`
}

// OverviewStats is the aggregate picture served by the overview endpoint.
type OverviewStats struct {
	Users       UserStats     `json:"users"`
	Roles       RoleStats     `json:"roles"`
	Overrides   OverrideStats `json:"overrides"`
	Permissions int           `json:"permissions"`
}

// CreateRoleInput carries the fields for creating a custom role.
type CreateRoleInput struct {
	Name        string
	DisplayName string
	Description string
	Permissions []string
}

// UpdateRoleInput carries the mutable role fields. The role name is
// immutable because role_permissions seeding and audit entries key on it.
type UpdateRoleInput struct {
	DisplayName string
	Description string
}

// CreateOverrideInput carries the fields for creating an override.
type CreateOverrideInput struct {
	Permission string
	Granted    bool
}

// UserListFilters narrows the user listing.
type UserListFilters struct {
	Query   string
	Page    int
	PerPage int
}
