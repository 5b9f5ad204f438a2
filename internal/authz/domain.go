// Package authz decides whether an acting user may perform an
// administrative action. It resolves effective permission sets from
// roles and per-user overrides, maps route patterns to required
// permissions, guards HTTP handlers and seeds the permission catalog
// on first use.
package authz

import (
	"errors"
	"sort"
	"time"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("authz: not found")

// Permission represents an atomic capability gating one administrative action.
type Permission struct {
	ID          int64
	Name        string
	DisplayName string
	Description string
	Resource    string
	Action      string
	Category    string
	Sensitive   bool
}

// Role groups permissions for assignment to users. System roles are
// seeded at bootstrap and cannot be deleted through the admin API.
type Role struct {
	ID          int64
	Name        string
	DisplayName string
	Description string
	System      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Override grants or denies a single permission for one user,
// independent of role membership. At most one override exists per
// (user, permission) pair.
type Override struct {
	UserID     int64
	Permission string
	Granted    bool
	AssignedBy int64
	CreatedAt  time.Time
}

// Subject carries the user fields consulted during resolution.
type Subject struct {
	ID         int64
	SuperAdmin bool
	LegacyRole string
	CreatedAt  time.Time
}

// PermissionSet is a resolved set of permission names.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from the given names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the named permission is in the set.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether at least one of the names is present.
// An empty list is trivially satisfied.
func (s PermissionSet) HasAny(names ...string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if s.Has(name) {
			return true
		}
	}
	return false
}

// HasAll reports whether every name is present.
func (s PermissionSet) HasAll(names ...string) bool {
	for _, name := range names {
		if !s.Has(name) {
			return false
		}
	}
	return true
}

// Add inserts a permission name.
func (s PermissionSet) Add(name string) {
	s[name] = struct{}{}
}

// Remove deletes a permission name.
func (s PermissionSet) Remove(name string) {
	delete(s, name)
}

// Names returns the members sorted for stable output.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the set.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	return out
}

// Reason classifies the provenance of a detailed permission check.
type Reason string

// Detailed check reasons.
const (
	ReasonSuperAdmin     Reason = "super_admin"
	ReasonRolePermission Reason = "role_permission"
	ReasonUserGrant      Reason = "user_grant"
	ReasonUserDenial     Reason = "user_denial"
	ReasonNoPermission   Reason = "no_permission"
)

// Decision is the outcome of a detailed permission check. Roles lists
// the granting role names when the reason is role_permission.
type Decision struct {
	Allowed    bool     `json:"allowed"`
	Reason     Reason   `json:"reason"`
	Permission string   `json:"permission"`
	Roles      []string `json:"roles,omitempty"`
}
