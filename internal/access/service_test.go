package access

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-commerce/meridian-commerce/internal/authz"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
	"github.com/meridian-commerce/meridian-commerce/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepo struct {
	perms      map[string]PermissionInfo
	permsByID  map[int64]string
	nextPermID int64

	roles       map[int64]*RoleSummary
	rolesByName map[string]int64
	nextRoleID  int64
	rolePerms   map[int64][]int64

	users     map[int64]*UserSummary
	userRoles map[int64]map[int64]int64
	overrides map[int64]map[string]OverrideDetail

	// Error injection
	getRoleErr    error
	replaceErr    error
	roleStatsErr  error
	userStatsErr  error
	listUsersErr  error
	getUserErr    error
	createRoleErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		perms:       make(map[string]PermissionInfo),
		permsByID:   make(map[int64]string),
		nextPermID:  1,
		roles:       make(map[int64]*RoleSummary),
		rolesByName: make(map[string]int64),
		nextRoleID:  1,
		rolePerms:   make(map[int64][]int64),
		users:       make(map[int64]*UserSummary),
		userRoles:   make(map[int64]map[int64]int64),
		overrides:   make(map[int64]map[string]OverrideDetail),
	}
}

func (m *mockRepo) addPermission(name string, sensitive bool) int64 {
	id := m.nextPermID
	m.nextPermID++
	m.perms[name] = PermissionInfo{ID: id, Name: name, DisplayName: name, Sensitive: sensitive}
	m.permsByID[id] = name
	return id
}

func (m *mockRepo) addRole(name string, system bool) *RoleSummary {
	id := m.nextRoleID
	m.nextRoleID++
	role := &RoleSummary{ID: id, Name: name, DisplayName: name, System: system, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.roles[id] = role
	m.rolesByName[name] = id
	return role
}

func (m *mockRepo) addUser(id int64, email string) *UserSummary {
	user := &UserSummary{ID: id, Email: email, IsActive: true, Roles: []string{}, CreatedAt: time.Now()}
	m.users[id] = user
	return user
}

func (m *mockRepo) roleCopy(id int64) *RoleSummary {
	role := *m.roles[id]
	role.PermissionCount = len(m.rolePerms[id])
	count := 0
	for _, held := range m.userRoles {
		if _, ok := held[id]; ok {
			count++
		}
	}
	role.MemberCount = count
	return &role
}

func (m *mockRepo) ListPermissions(ctx context.Context) ([]PermissionInfo, error) {
	var out []PermissionInfo
	for _, p := range m.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) PermissionIDsByName(ctx context.Context, names []string) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, name := range names {
		if p, ok := m.perms[name]; ok {
			ids[name] = p.ID
		}
	}
	return ids, nil
}

func (m *mockRepo) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	var out []RoleSummary
	for id := range m.roles {
		out = append(out, *m.roleCopy(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepo) GetRole(ctx context.Context, roleID int64) (*RoleSummary, error) {
	if m.getRoleErr != nil {
		return nil, m.getRoleErr
	}
	if _, ok := m.roles[roleID]; !ok {
		return nil, httpx.ErrNotFound
	}
	return m.roleCopy(roleID), nil
}

func (m *mockRepo) RolePermissionNames(ctx context.Context, roleID int64) ([]string, error) {
	var names []string
	for _, permID := range m.rolePerms[roleID] {
		names = append(names, m.permsByID[permID])
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockRepo) CreateRole(ctx context.Context, name, displayName, description string) (*RoleSummary, error) {
	if m.createRoleErr != nil {
		return nil, m.createRoleErr
	}
	if _, exists := m.rolesByName[name]; exists {
		return nil, fmt.Errorf("role %q: %w", name, httpx.ErrDuplicate)
	}
	role := m.addRole(name, false)
	role.DisplayName = displayName
	role.Description = description
	return m.roleCopy(role.ID), nil
}

func (m *mockRepo) UpdateRole(ctx context.Context, roleID int64, displayName, description string) (*RoleSummary, error) {
	role, ok := m.roles[roleID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	role.DisplayName = displayName
	role.Description = description
	role.UpdatedAt = time.Now()
	return m.roleCopy(roleID), nil
}

func (m *mockRepo) DeleteRole(ctx context.Context, roleID int64) (bool, error) {
	role, ok := m.roles[roleID]
	if !ok {
		return false, nil
	}
	delete(m.rolesByName, role.Name)
	delete(m.roles, roleID)
	delete(m.rolePerms, roleID)
	for _, held := range m.userRoles {
		delete(held, roleID)
	}
	return true, nil
}

func (m *mockRepo) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.rolePerms[roleID] = append([]int64(nil), permissionIDs...)
	return nil
}

func (m *mockRepo) RoleMemberIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var ids []int64
	for userID, held := range m.userRoles {
		if _, ok := held[roleID]; ok {
			ids = append(ids, userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockRepo) ListUsers(ctx context.Context, filters UserListFilters) ([]UserSummary, error) {
	if m.listUsersErr != nil {
		return nil, m.listUsersErr
	}
	var out []UserSummary
	for id := range m.users {
		out = append(out, *m.users[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	offset := (filters.Page - 1) * filters.PerPage
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + filters.PerPage
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *mockRepo) CountUsers(ctx context.Context, filters UserListFilters) (int, error) {
	return len(m.users), nil
}

func (m *mockRepo) GetUser(ctx context.Context, userID int64) (*UserSummary, error) {
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	user, ok := m.users[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockRepo) UserRoles(ctx context.Context, userID int64) ([]UserRole, error) {
	var out []UserRole
	for roleID, assignedBy := range m.userRoles[userID] {
		role := m.roles[roleID]
		out = append(out, UserRole{RoleID: roleID, Name: role.Name, DisplayName: role.DisplayName, AssignedBy: assignedBy})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) (bool, error) {
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]int64)
	}
	if _, exists := m.userRoles[userID][roleID]; exists {
		return false, nil
	}
	m.userRoles[userID][roleID] = assignedBy
	return true, nil
}

func (m *mockRepo) RemoveRole(ctx context.Context, userID, roleID int64) (bool, error) {
	if _, exists := m.userRoles[userID][roleID]; !exists {
		return false, nil
	}
	delete(m.userRoles[userID], roleID)
	return true, nil
}

func (m *mockRepo) UserOverrides(ctx context.Context, userID int64) ([]OverrideDetail, error) {
	var out []OverrideDetail
	for _, o := range m.overrides[userID] {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Permission < out[j].Permission })
	return out, nil
}

func (m *mockRepo) CreateOverride(ctx context.Context, userID, permissionID int64, granted bool, assignedBy int64) error {
	name := m.permsByID[permissionID]
	if m.overrides[userID] == nil {
		m.overrides[userID] = make(map[string]OverrideDetail)
	}
	if _, exists := m.overrides[userID][name]; exists {
		return fmt.Errorf("override for user %d: %w", userID, httpx.ErrDuplicate)
	}
	m.overrides[userID][name] = OverrideDetail{
		Permission:  name,
		DisplayName: m.perms[name].DisplayName,
		Granted:     granted,
		Sensitive:   m.perms[name].Sensitive,
		AssignedBy:  assignedBy,
		CreatedAt:   time.Now(),
	}
	return nil
}

func (m *mockRepo) DeleteOverride(ctx context.Context, userID int64, permission string) (bool, error) {
	if _, exists := m.overrides[userID][permission]; !exists {
		return false, nil
	}
	delete(m.overrides[userID], permission)
	return true, nil
}

func (m *mockRepo) UserStats(ctx context.Context) (UserStats, error) {
	if m.userStatsErr != nil {
		return UserStats{}, m.userStatsErr
	}
	stats := UserStats{Total: len(m.users)}
	for _, u := range m.users {
		if u.IsActive {
			stats.Active++
		}
		if u.IsSuperAdmin {
			stats.SuperAdmins++
		}
	}
	return stats, nil
}

func (m *mockRepo) RoleStats(ctx context.Context) (RoleStats, error) {
	if m.roleStatsErr != nil {
		return RoleStats{}, m.roleStatsErr
	}
	stats := RoleStats{Total: len(m.roles)}
	for _, r := range m.roles {
		if r.System {
			stats.System++
		}
	}
	return stats, nil
}

func (m *mockRepo) OverrideStats(ctx context.Context) (OverrideStats, error) {
	var stats OverrideStats
	for _, held := range m.overrides {
		for _, o := range held {
			stats.Total++
			if o.Granted {
				stats.Grants++
				if o.Sensitive {
					stats.SensitiveGrants++
				}
			} else {
				stats.Denials++
			}
		}
	}
	return stats, nil
}

func (m *mockRepo) CountPermissions(ctx context.Context) (int, error) {
	return len(m.perms), nil
}

var _ Repository = (*mockRepo)(nil)

// ============================================================================
// RECORDING COLLABORATORS
// ============================================================================

type recordingResolver struct {
	invalidated []int64
	effective   map[int64][]string
	decision    authz.Decision
	err         error
}

func (r *recordingResolver) EffectivePermissions(ctx context.Context, userID int64) (authz.PermissionSet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return authz.NewPermissionSet(r.effective[userID]...), nil
}

func (r *recordingResolver) CheckDetailed(ctx context.Context, userID int64, permission string) (authz.Decision, error) {
	if r.err != nil {
		return authz.Decision{}, r.err
	}
	return r.decision, nil
}

func (r *recordingResolver) InvalidateUser(userID int64) {
	r.invalidated = append(r.invalidated, userID)
}

type recordingAudit struct {
	entries []shared.AuditLog
	err     error
}

func (a *recordingAudit) Record(ctx context.Context, entry shared.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func newTestService() (*Service, *mockRepo, *recordingResolver, *recordingAudit) {
	repo := newMockRepo()
	resolver := &recordingResolver{effective: make(map[int64][]string)}
	audit := &recordingAudit{}
	svc := NewService(ServiceConfig{
		Repo:     repo,
		Resolver: resolver,
		Audit:    audit,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return svc, repo, resolver, audit
}

// ============================================================================
// ROLE TESTS
// ============================================================================

func TestCreateRoleWithPermissions(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	repo.addPermission("orders.view", false)
	repo.addPermission("orders.edit", false)

	role, err := svc.CreateRole(ctx, 100, CreateRoleInput{
		Name:        " Support ",
		DisplayName: "Support",
		Permissions: []string{"Orders.View", "orders.edit", "orders.view"},
	})
	require.NoError(t, err)
	require.NotNil(t, role)

	assert.Equal(t, "support", role.Name)
	assert.False(t, role.System)
	assert.Equal(t, []string{"orders.edit", "orders.view"}, role.Permissions)
	assert.Equal(t, 2, role.PermissionCount)
	assert.Equal(t, []string{"role.created"}, audit.actions())
	assert.Empty(t, resolver.invalidated)
}

func TestCreateRoleRejectsInvalidName(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateRole(context.Background(), 100, CreateRoleInput{Name: "Support Team!", DisplayName: "Support"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	svc, repo, _, audit := newTestService()
	repo.addPermission("orders.view", false)

	_, err := svc.CreateRole(context.Background(), 100, CreateRoleInput{
		Name:        "support",
		DisplayName: "Support",
		Permissions: []string{"orders.view", "warehouse.teleport"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Empty(t, audit.entries)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.addRole("support", false)

	_, err := svc.CreateRole(context.Background(), 100, CreateRoleInput{Name: "support", DisplayName: "Support"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestUpdateRoleKeepsNameAndCache(t *testing.T) {
	svc, repo, resolver, _ := newTestService()
	role := repo.addRole("support", false)

	updated, err := svc.UpdateRole(context.Background(), 100, role.ID, UpdateRoleInput{DisplayName: "Support Desk", Description: "first line"})
	require.NoError(t, err)

	assert.Equal(t, "support", updated.Name)
	assert.Equal(t, "Support Desk", updated.DisplayName)
	assert.Empty(t, resolver.invalidated, "metadata updates must not invalidate resolutions")
}

func TestDeleteRoleInvalidatesMembers(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	role := repo.addRole("support", false)
	repo.addUser(3, "a@store.test")
	repo.addUser(5, "b@store.test")
	_, err := repo.AssignRole(ctx, 3, role.ID, 0)
	require.NoError(t, err)
	_, err = repo.AssignRole(ctx, 5, role.ID, 0)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(ctx, 100, role.ID))

	assert.ElementsMatch(t, []int64{3, 5}, resolver.invalidated)
	assert.NotContains(t, repo.roles, role.ID)
	assert.Equal(t, []string{"role.deleted"}, audit.actions())
}

func TestDeleteSystemRoleRefused(t *testing.T) {
	svc, repo, resolver, _ := newTestService()
	role := repo.addRole("admin", true)

	err := svc.DeleteRole(context.Background(), 100, role.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	assert.Contains(t, repo.roles, role.ID)
	assert.Empty(t, resolver.invalidated)
}

func TestDeleteRoleNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.DeleteRole(context.Background(), 100, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestReplaceRolePermissionsInvalidatesMembers(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	viewID := repo.addPermission("orders.view", false)
	repo.addPermission("orders.delete", true)
	role := repo.addRole("support", false)
	repo.rolePerms[role.ID] = []int64{viewID}
	repo.addUser(2, "a@store.test")
	repo.addUser(4, "b@store.test")
	_, err := repo.AssignRole(ctx, 2, role.ID, 0)
	require.NoError(t, err)
	_, err = repo.AssignRole(ctx, 4, role.ID, 0)
	require.NoError(t, err)

	detail, err := svc.ReplaceRolePermissions(ctx, 100, role.ID, []string{"orders.delete"})
	require.NoError(t, err)

	assert.Equal(t, []string{"orders.delete"}, detail.Permissions)
	assert.ElementsMatch(t, []int64{2, 4}, resolver.invalidated)
	names, err := repo.RolePermissionNames(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders.delete"}, names)
	assert.Equal(t, []string{"role.permissions_replaced"}, audit.actions())
}

// ============================================================================
// USER ROLE TESTS
// ============================================================================

func TestAssignRoleInvalidatesUser(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	role := repo.addRole("support", false)
	repo.addUser(7, "rep@store.test")

	require.NoError(t, svc.AssignRole(ctx, 100, 7, role.ID))

	assert.Equal(t, []int64{7}, resolver.invalidated)
	assert.Equal(t, []string{"user.role_assigned"}, audit.actions())

	// Assigning the same role again is a no-op.
	require.NoError(t, svc.AssignRole(ctx, 100, 7, role.ID))
	assert.Equal(t, []int64{7}, resolver.invalidated)
	assert.Equal(t, []string{"user.role_assigned"}, audit.actions())
}

func TestAssignRoleUnknownUser(t *testing.T) {
	svc, repo, _, _ := newTestService()
	role := repo.addRole("support", false)

	err := svc.AssignRole(context.Background(), 100, 999, role.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestAssignRoleUnknownRole(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.addUser(7, "rep@store.test")

	err := svc.AssignRole(context.Background(), 100, 7, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestRemoveRoleInvalidatesUser(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	role := repo.addRole("support", false)
	repo.addUser(7, "rep@store.test")
	_, err := repo.AssignRole(ctx, 7, role.ID, 0)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveRole(ctx, 100, 7, role.ID))

	assert.Equal(t, []int64{7}, resolver.invalidated)
	assert.Equal(t, []string{"user.role_removed"}, audit.actions())
}

func TestRemoveRoleNotHeld(t *testing.T) {
	svc, repo, resolver, _ := newTestService()
	role := repo.addRole("support", false)
	repo.addUser(7, "rep@store.test")

	err := svc.RemoveRole(context.Background(), 100, 7, role.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Empty(t, resolver.invalidated)
}

// ============================================================================
// OVERRIDE TESTS
// ============================================================================

func TestCreateOverrideInvalidatesUser(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	repo.addPermission("orders.refund", true)
	repo.addUser(7, "rep@store.test")

	override, err := svc.CreateOverride(context.Background(), 100, 7, CreateOverrideInput{Permission: " Orders.Refund ", Granted: true})
	require.NoError(t, err)

	assert.Equal(t, "orders.refund", override.Permission)
	assert.True(t, override.Granted)
	assert.True(t, override.Sensitive)
	assert.Equal(t, []int64{7}, resolver.invalidated)
	assert.Equal(t, []string{"user.override_created"}, audit.actions())
}

func TestCreateOverrideDuplicate(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.addPermission("orders.refund", true)
	repo.addUser(7, "rep@store.test")

	_, err := svc.CreateOverride(context.Background(), 100, 7, CreateOverrideInput{Permission: "orders.refund", Granted: true})
	require.NoError(t, err)

	_, err = svc.CreateOverride(context.Background(), 100, 7, CreateOverrideInput{Permission: "orders.refund", Granted: false})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestCreateOverrideUnknownPermission(t *testing.T) {
	svc, repo, resolver, _ := newTestService()
	repo.addUser(7, "rep@store.test")

	_, err := svc.CreateOverride(context.Background(), 100, 7, CreateOverrideInput{Permission: "warehouse.teleport", Granted: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Empty(t, resolver.invalidated)
}

func TestDeleteOverrideInvalidatesUser(t *testing.T) {
	svc, repo, resolver, audit := newTestService()
	ctx := context.Background()
	permID := repo.addPermission("orders.refund", true)
	repo.addUser(7, "rep@store.test")
	require.NoError(t, repo.CreateOverride(ctx, 7, permID, true, 0))

	require.NoError(t, svc.DeleteOverride(ctx, 100, 7, "orders.refund"))

	assert.Equal(t, []int64{7}, resolver.invalidated)
	assert.Equal(t, []string{"user.override_removed"}, audit.actions())
}

func TestDeleteOverrideNotFound(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.addUser(7, "rep@store.test")

	err := svc.DeleteOverride(context.Background(), 100, 7, "orders.refund")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

// ============================================================================
// LISTING AND DIAGNOSTICS
// ============================================================================

func TestListUsersPagination(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.addUser(1, "a@store.test")
	repo.addUser(2, "b@store.test")
	repo.addUser(3, "c@store.test")

	page, err := svc.ListUsers(context.Background(), UserListFilters{Page: 1, PerPage: 2})
	require.NoError(t, err)

	assert.Len(t, page.Users, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = svc.ListUsers(context.Background(), UserListFilters{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Users, 1)
}

func TestEffectiveForUser(t *testing.T) {
	svc, repo, resolver, _ := newTestService()
	user := repo.addUser(7, "rep@store.test")
	user.IsSuperAdmin = true
	resolver.effective[7] = []string{"orders.view", "orders.edit"}

	result, err := svc.EffectiveForUser(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.UserID)
	assert.True(t, result.IsSuperAdmin)
	assert.Equal(t, []string{"orders.edit", "orders.view"}, result.Permissions)
}

func TestEffectiveForUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.EffectiveForUser(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestOverviewAggregates(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	refundID := repo.addPermission("orders.refund", true)
	viewID := repo.addPermission("orders.view", false)
	repo.addRole("admin", true)
	repo.addRole("support", false)
	admin := repo.addUser(1, "admin@store.test")
	admin.IsSuperAdmin = true
	repo.addUser(2, "rep@store.test")
	require.NoError(t, repo.CreateOverride(ctx, 2, refundID, true, 1))
	require.NoError(t, repo.CreateOverride(ctx, 2, viewID, false, 1))

	stats, err := svc.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, UserStats{Total: 2, Active: 2, SuperAdmins: 1}, stats.Users)
	assert.Equal(t, RoleStats{Total: 2, System: 1}, stats.Roles)
	assert.Equal(t, OverrideStats{Total: 2, Grants: 1, Denials: 1, SensitiveGrants: 1}, stats.Overrides)
	assert.Equal(t, 2, stats.Permissions)
}

func TestOverviewPropagatesErrors(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.userStatsErr = errors.New("db down")

	_, err := svc.Overview(context.Background())
	require.Error(t, err)
}
