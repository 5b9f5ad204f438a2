package authz

import "strings"

// Permission names, dot-namespaced as resource.action.
const (
	PermProductsView    = "products.view"
	PermProductsCreate  = "products.create"
	PermProductsEdit    = "products.edit"
	PermProductsDelete  = "products.delete"
	PermProductsPublish = "products.publish"

	PermVariantsGenerate = "variants.generate"
	PermVariantsEdit     = "variants.edit"

	PermOrdersView   = "orders.view"
	PermOrdersEdit   = "orders.edit"
	PermOrdersDelete = "orders.delete"
	PermOrdersRefund = "orders.refund"
	PermOrdersExport = "orders.export"

	PermPagesView    = "pages.view"
	PermPagesCreate  = "pages.create"
	PermPagesEdit    = "pages.edit"
	PermPagesDelete  = "pages.delete"
	PermPagesPublish = "pages.publish"

	PermMediaView   = "media.view"
	PermMediaUpload = "media.upload"
	PermMediaDelete = "media.delete"

	PermCustomersView   = "customers.view"
	PermCustomersEdit   = "customers.edit"
	PermCustomersExport = "customers.export"

	PermSettingsView = "settings.view"
	PermSettingsEdit = "settings.edit"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermAuditView   = "audit.view"
	PermAuditExport = "audit.export"
)

// Categories group permissions by administrative surface.
const (
	CategoryCatalog   = "Catalog"
	CategoryOrders    = "Orders"
	CategoryContent   = "Content"
	CategoryCustomers = "Customers"
	CategoryPlatform  = "Platform"
)

// System role names seeded at bootstrap.
const (
	RoleAdmin         = "admin"
	RoleStoreManager  = "store_manager"
	RoleContentEditor = "content_editor"
	RoleSalesRep      = "sales_rep"
	RoleViewer        = "viewer"
)

var catalog = []Permission{
	perm(PermProductsView, "View products", "Browse the product catalog", CategoryCatalog, false),
	perm(PermProductsCreate, "Create products", "Add new products to the catalog", CategoryCatalog, false),
	perm(PermProductsEdit, "Edit products", "Change product details, pricing and inventory", CategoryCatalog, false),
	perm(PermProductsDelete, "Delete products", "Permanently remove products from the catalog", CategoryCatalog, true),
	perm(PermProductsPublish, "Publish products", "Control storefront visibility of products", CategoryCatalog, false),

	perm(PermVariantsGenerate, "Generate variants", "Generate variant combinations from product options", CategoryCatalog, false),
	perm(PermVariantsEdit, "Edit variants", "Change variant pricing, SKUs and stock", CategoryCatalog, false),

	perm(PermOrdersView, "View orders", "Browse orders and order details", CategoryOrders, false),
	perm(PermOrdersEdit, "Edit orders", "Update order status, shipping and notes", CategoryOrders, false),
	perm(PermOrdersDelete, "Delete orders", "Permanently remove orders", CategoryOrders, true),
	perm(PermOrdersRefund, "Refund orders", "Issue full or partial refunds", CategoryOrders, true),
	perm(PermOrdersExport, "Export orders", "Download order data as CSV", CategoryOrders, true),

	perm(PermPagesView, "View pages", "Browse storefront pages", CategoryContent, false),
	perm(PermPagesCreate, "Create pages", "Add new storefront pages", CategoryContent, false),
	perm(PermPagesEdit, "Edit pages", "Change page content and layout", CategoryContent, false),
	perm(PermPagesDelete, "Delete pages", "Permanently remove storefront pages", CategoryContent, true),
	perm(PermPagesPublish, "Publish pages", "Control storefront visibility of pages", CategoryContent, false),

	perm(PermMediaView, "View media", "Browse the media library", CategoryContent, false),
	perm(PermMediaUpload, "Upload media", "Add images and files to the media library", CategoryContent, false),
	perm(PermMediaDelete, "Delete media", "Permanently remove media library items", CategoryContent, true),

	perm(PermCustomersView, "View customers", "Browse customer accounts and order history", CategoryCustomers, false),
	perm(PermCustomersEdit, "Edit customers", "Change customer details and addresses", CategoryCustomers, false),
	perm(PermCustomersExport, "Export customers", "Download customer data as CSV", CategoryCustomers, true),

	perm(PermSettingsView, "View settings", "Read store configuration", CategoryPlatform, false),
	perm(PermSettingsEdit, "Edit settings", "Change store configuration", CategoryPlatform, true),

	perm(PermUsersView, "View users", "Browse administrative user accounts", CategoryPlatform, false),
	perm(PermUsersEdit, "Edit users", "Manage user accounts, roles and overrides", CategoryPlatform, true),

	perm(PermRolesView, "View roles", "Browse roles and their permissions", CategoryPlatform, false),
	perm(PermRolesEdit, "Edit roles", "Create, change and delete roles", CategoryPlatform, true),

	perm(PermPermissionsView, "View permissions", "Browse the permission catalog", CategoryPlatform, false),

	perm(PermAuditView, "View audit log", "Browse the administrative audit trail", CategoryPlatform, false),
	perm(PermAuditExport, "Export audit log", "Download audit trail entries as CSV", CategoryPlatform, true),
}

var catalogByName = func() map[string]Permission {
	index := make(map[string]Permission, len(catalog))
	for _, p := range catalog {
		index[p.Name] = p
	}
	return index
}()

func perm(name, displayName, description, category string, sensitive bool) Permission {
	resource, action, _ := strings.Cut(name, ".")
	return Permission{
		Name:        name,
		DisplayName: displayName,
		Description: description,
		Resource:    resource,
		Action:      action,
		Category:    category,
		Sensitive:   sensitive,
	}
}

// Catalog returns every permission the platform knows about. The
// seeder persists this list; it is the single source of truth for
// permission names.
func Catalog() []Permission {
	return append([]Permission(nil), catalog...)
}

// CatalogSet returns the full catalog as a PermissionSet.
func CatalogSet() PermissionSet {
	set := make(PermissionSet, len(catalog))
	for _, p := range catalog {
		set[p.Name] = struct{}{}
	}
	return set
}

// CatalogPermission looks up a catalog entry by name.
func CatalogPermission(name string) (Permission, bool) {
	p, ok := catalogByName[name]
	return p, ok
}

// RoleSeed defines a system role and the permission names it carries.
type RoleSeed struct {
	Name        string
	DisplayName string
	Description string
	Permissions []string
}

// SystemRoles returns the built-in role definitions consumed by the seeder.
func SystemRoles() []RoleSeed {
	return []RoleSeed{
		{
			Name:        RoleAdmin,
			DisplayName: "Administrator",
			Description: "Full access to every administrative surface",
			Permissions: CatalogSet().Names(),
		},
		{
			Name:        RoleStoreManager,
			DisplayName: "Store Manager",
			Description: "Runs the catalog, orders and content day to day",
			Permissions: []string{
				PermProductsView, PermProductsCreate, PermProductsEdit, PermProductsDelete, PermProductsPublish,
				PermVariantsGenerate, PermVariantsEdit,
				PermOrdersView, PermOrdersEdit, PermOrdersDelete, PermOrdersRefund, PermOrdersExport,
				PermPagesView, PermPagesCreate, PermPagesEdit, PermPagesDelete, PermPagesPublish,
				PermMediaView, PermMediaUpload, PermMediaDelete,
				PermCustomersView, PermCustomersEdit,
			},
		},
		{
			Name:        RoleContentEditor,
			DisplayName: "Content Editor",
			Description: "Maintains storefront pages and the media library",
			Permissions: []string{
				PermPagesView, PermPagesCreate, PermPagesEdit, PermPagesPublish,
				PermMediaView, PermMediaUpload,
			},
		},
		{
			Name:        RoleSalesRep,
			DisplayName: "Sales Representative",
			Description: "Works orders and customer accounts",
			Permissions: []string{
				PermOrdersView, PermOrdersEdit,
				PermCustomersView,
			},
		},
		{
			Name:        RoleViewer,
			DisplayName: "Viewer",
			Description: "Read-only access across the admin",
			Permissions: []string{
				PermProductsView, PermOrdersView, PermPagesView, PermMediaView,
				PermCustomersView, PermSettingsView, PermUsersView, PermRolesView,
				PermPermissionsView, PermAuditView,
			},
		},
	}
}
