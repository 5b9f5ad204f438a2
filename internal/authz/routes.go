package authz

import "net/http"

// DefaultRoutes declares the authorization table for the admin API.
// Overlapping patterns are intentional: the generic `/api/orders/*`
// rule sits beside the more specific `/api/orders/*/refund`, and the
// table's specificity ordering picks the right one.
func DefaultRoutes() []RouteRule {
	return []RouteRule{
		{Pattern: "/api/products", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermProductsView}},
			http.MethodPost: {All: []string{PermProductsCreate}},
		}},
		{Pattern: "/api/products/*", Verbs: map[string]Requirement{
			http.MethodGet:    {All: []string{PermProductsView}},
			http.MethodPut:    {All: []string{PermProductsEdit}},
			http.MethodPatch:  {All: []string{PermProductsEdit}},
			http.MethodDelete: {All: []string{PermProductsDelete}},
		}},
		{Pattern: "/api/products/*/publish", Verbs: map[string]Requirement{
			http.MethodPost: {All: []string{PermProductsPublish}},
		}},
		{Pattern: "/api/products/*/variants", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermProductsView}},
			http.MethodPost: {All: []string{PermVariantsGenerate}},
			http.MethodPut:  {All: []string{PermVariantsEdit}},
		}},

		{Pattern: "/api/orders", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermOrdersView}},
		}},
		{Pattern: "/api/orders/export", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermOrdersExport}},
			http.MethodPost: {All: []string{PermOrdersExport}},
		}},
		{Pattern: "/api/orders/*", Verbs: map[string]Requirement{
			http.MethodGet:    {All: []string{PermOrdersView}},
			http.MethodPut:    {All: []string{PermOrdersEdit}},
			http.MethodDelete: {All: []string{PermOrdersDelete}},
		}},
		{Pattern: "/api/orders/*/status", Verbs: map[string]Requirement{
			http.MethodPatch: {All: []string{PermOrdersEdit}},
		}},
		{Pattern: "/api/orders/*/refund", Verbs: map[string]Requirement{
			http.MethodPost: {All: []string{PermOrdersRefund}},
		}},

		{Pattern: "/api/pages", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermPagesView}},
			http.MethodPost: {All: []string{PermPagesCreate}},
		}},
		{Pattern: "/api/pages/*", Verbs: map[string]Requirement{
			http.MethodGet:    {All: []string{PermPagesView}},
			http.MethodPut:    {All: []string{PermPagesEdit}},
			http.MethodDelete: {All: []string{PermPagesDelete}},
		}},
		{Pattern: "/api/pages/*/publish", Verbs: map[string]Requirement{
			http.MethodPost: {All: []string{PermPagesPublish}},
		}},

		{Pattern: "/api/media", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermMediaView}},
			http.MethodPost: {All: []string{PermMediaUpload}},
		}},
		{Pattern: "/api/media/*", Verbs: map[string]Requirement{
			http.MethodGet:    {All: []string{PermMediaView}},
			http.MethodDelete: {All: []string{PermMediaDelete}},
		}},

		{Pattern: "/api/customers", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermCustomersView}},
		}},
		{Pattern: "/api/customers/export", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermCustomersExport}},
		}},
		{Pattern: "/api/customers/*", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermCustomersView}},
			http.MethodPut: {All: []string{PermCustomersEdit}},
		}},

		{Pattern: "/api/settings", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermSettingsView}},
			http.MethodPut: {All: []string{PermSettingsEdit}},
		}},

		{Pattern: "/api/access/permissions", Verbs: map[string]Requirement{
			http.MethodGet: {Any: []string{PermPermissionsView, PermRolesView}},
		}},
		{Pattern: "/api/access/roles", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermRolesView}},
			http.MethodPost: {All: []string{PermRolesEdit}},
		}},
		{Pattern: "/api/access/roles/*", Verbs: map[string]Requirement{
			http.MethodGet:    {All: []string{PermRolesView}},
			http.MethodPut:    {All: []string{PermRolesEdit}},
			http.MethodDelete: {All: []string{PermRolesEdit}},
		}},
		{Pattern: "/api/access/roles/*/permissions", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermRolesView}},
			http.MethodPut: {All: []string{PermRolesEdit}},
		}},
		{Pattern: "/api/access/users", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermUsersView}},
		}},
		{Pattern: "/api/access/users/*/roles", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermUsersView}},
			http.MethodPost: {All: []string{PermUsersEdit}},
		}},
		{Pattern: "/api/access/users/*/roles/*", Verbs: map[string]Requirement{
			http.MethodDelete: {All: []string{PermUsersEdit}},
		}},
		{Pattern: "/api/access/users/*/overrides", Verbs: map[string]Requirement{
			http.MethodGet:  {All: []string{PermUsersView}},
			http.MethodPost: {All: []string{PermUsersEdit}},
		}},
		{Pattern: "/api/access/users/*/overrides/*", Verbs: map[string]Requirement{
			http.MethodDelete: {All: []string{PermUsersEdit}},
		}},
		{Pattern: "/api/access/users/*/effective", Verbs: map[string]Requirement{
			http.MethodGet: {Any: []string{PermUsersView, PermRolesView}},
		}},
		{Pattern: "/api/access/users/*/check", Verbs: map[string]Requirement{
			http.MethodGet: {Any: []string{PermUsersView, PermRolesView}},
		}},
		{Pattern: "/api/access/overview", Verbs: map[string]Requirement{
			http.MethodGet: {Any: []string{PermUsersView, PermRolesView}},
		}},

		{Pattern: "/api/audit", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermAuditView}},
		}},
		{Pattern: "/api/audit/export.csv", Verbs: map[string]Requirement{
			http.MethodGet: {All: []string{PermAuditExport}},
		}},
	}
}
