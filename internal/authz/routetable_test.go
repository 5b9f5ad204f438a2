package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupExactBeatsWildcard(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/api/orders/export", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermOrdersExport}},
		}},
		{Pattern: "/api/orders/*", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermOrdersView}},
		}},
	})

	assert.Equal(t, []string{PermOrdersExport}, table.Lookup("/api/orders/export", http.MethodGet).All)
	assert.Equal(t, []string{PermOrdersView}, table.Lookup("/api/orders/123", "get").All)
}

func TestLookupMoreSpecificPatternWins(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/orders/*", Verbs: map[string]Requirement{
			http.MethodPatch: {All: []string{PermOrdersDelete}},
		}},
		{Pattern: "/orders/*/status", Verbs: map[string]Requirement{
			http.MethodPatch: {All: []string{PermOrdersEdit}},
		}},
	})

	req := table.Lookup("/orders/123/status", http.MethodPatch)
	assert.Equal(t, []string{PermOrdersEdit}, req.All)
}

func TestLookupFewerWildcardsWin(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/files/*/*", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermMediaDelete}},
		}},
		{Pattern: "/files/*/meta", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermMediaView}},
		}},
	})

	assert.Equal(t, []string{PermMediaView}, table.Lookup("/files/42/meta", http.MethodGet).All)
	assert.Equal(t, []string{PermMediaDelete}, table.Lookup("/files/42/raw", http.MethodGet).All)
}

func TestLookupWildcardMatchesExactlyOneSegment(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/orders/*", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermOrdersView}},
		}},
	})

	assert.False(t, table.Lookup("/orders/1", http.MethodGet).Unrestricted())
	assert.True(t, table.Lookup("/orders", http.MethodGet).Unrestricted())
	assert.True(t, table.Lookup("/orders/1/lines", http.MethodGet).Unrestricted())
}

func TestLookupVerbMissingOnWinningKey(t *testing.T) {
	// The winning key decides alone. A looser pattern that does carry
	// the verb must not be consulted as a fallback.
	table := NewRouteTable([]RouteRule{
		{Pattern: "/reports/*/rows", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermAuditView}},
		}},
		{Pattern: "/reports/*/*", Verbs: map[string]Requirement{
			http.MethodDelete: {All: []string{PermSettingsEdit}},
		}},
	})

	assert.True(t, table.Lookup("/reports/7/rows", http.MethodDelete).Unrestricted())
	assert.Equal(t, []string{PermSettingsEdit}, table.Lookup("/reports/7/summary", http.MethodDelete).All)
}

func TestLookupMergesDuplicatePatterns(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/api/settings", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermSettingsView}},
		}},
		{Pattern: "/api/settings", Verbs: map[string]Requirement{
			http.MethodPut: {All: []string{PermSettingsEdit}},
		}},
	})

	assert.Equal(t, []string{PermSettingsView}, table.Lookup("/api/settings", http.MethodGet).All)
	assert.Equal(t, []string{PermSettingsEdit}, table.Lookup("/api/settings", http.MethodPut).All)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/orders", NormalizePath("/api/orders"))
	assert.Equal(t, "/api/orders", NormalizePath("/api/orders/"))
	assert.Equal(t, "/api/orders", NormalizePath("/api/orders?status=paid"))
	assert.Equal(t, "/api/orders", NormalizePath("api/orders"))
	assert.Equal(t, "/a", NormalizePath("/a///"))
	assert.Equal(t, "/", NormalizePath("/"))
	assert.Equal(t, "/", NormalizePath(""))
}

func TestLookupNormalizesRequestPath(t *testing.T) {
	table := NewRouteTable([]RouteRule{
		{Pattern: "/api/orders", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermOrdersView}},
		}},
	})

	assert.Equal(t, []string{PermOrdersView}, table.Lookup("/api/orders/?page=2", http.MethodGet).All)
}

func TestRequirementSatisfiedAndMissing(t *testing.T) {
	set := NewPermissionSet(PermOrdersView)

	all := Requirement{All: []string{PermOrdersView, PermOrdersDelete}}
	assert.False(t, all.Satisfied(set))
	assert.Equal(t, []string{PermOrdersDelete}, all.Missing(set))

	anyOf := Requirement{Any: []string{PermUsersView, PermRolesView}}
	assert.False(t, anyOf.Satisfied(set))
	assert.ElementsMatch(t, []string{PermUsersView, PermRolesView}, anyOf.Missing(set))

	combined := Requirement{All: []string{PermOrdersView}, Any: []string{PermUsersView, PermOrdersView}}
	assert.True(t, combined.Satisfied(set))
	assert.Empty(t, combined.Missing(set))

	assert.True(t, Requirement{}.Unrestricted())
	assert.True(t, Requirement{}.Satisfied(set))
}

func TestDefaultRoutesTable(t *testing.T) {
	table := NewRouteTable(DefaultRoutes())

	assert.Equal(t, []string{PermOrdersView}, table.Lookup("/api/orders/55", http.MethodGet).All)
	assert.Equal(t, []string{PermOrdersEdit}, table.Lookup("/api/orders/55/status", http.MethodPatch).All)
	assert.Equal(t, []string{PermOrdersRefund}, table.Lookup("/api/orders/55/refund", http.MethodPost).All)
	assert.Equal(t, []string{PermOrdersExport}, table.Lookup("/api/orders/export", http.MethodGet).All)
	assert.Equal(t, []string{PermProductsDelete}, table.Lookup("/api/products/9", http.MethodDelete).All)
	assert.Equal(t, []string{PermProductsPublish}, table.Lookup("/api/products/9/publish", http.MethodPost).All)
	assert.Equal(t, []string{PermUsersEdit}, table.Lookup("/api/access/users/7/overrides/4", http.MethodDelete).All)

	req := table.Lookup("/api/access/overview", http.MethodGet)
	assert.ElementsMatch(t, []string{PermUsersView, PermRolesView}, req.Any)

	assert.True(t, table.Lookup("/api/orders/55", http.MethodPatch).Unrestricted())
	assert.True(t, table.Lookup("/healthz", http.MethodGet).Unrestricted())
}

func TestDefaultRoutesVerbsAreKnown(t *testing.T) {
	known := map[string]struct{}{
		http.MethodGet: {}, http.MethodPost: {}, http.MethodPut: {},
		http.MethodPatch: {}, http.MethodDelete: {},
	}
	catalog := CatalogSet()
	for _, rule := range DefaultRoutes() {
		require.NotEmpty(t, rule.Verbs, rule.Pattern)
		for verb, req := range rule.Verbs {
			_, ok := known[verb]
			require.True(t, ok, "%s uses unknown verb %s", rule.Pattern, verb)
			require.False(t, req.Unrestricted(), "%s %s declares no permissions", verb, rule.Pattern)
			for _, name := range append(append([]string(nil), req.All...), req.Any...) {
				require.True(t, catalog.Has(name), "%s %s references unknown permission %s", verb, rule.Pattern, name)
			}
		}
	}
}
