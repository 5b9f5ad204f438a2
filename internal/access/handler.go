package access

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-commerce/meridian-commerce/internal/authz"
	"github.com/meridian-commerce/meridian-commerce/internal/platform/httpx"
)

// Handler wires the administration endpoints. Authorization is
// enforced upstream by the route guard; handlers only need the actor
// for attribution.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers the access administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)

	r.Get("/roles", h.listRoles)
	r.Post("/roles", h.createRole)
	r.Route("/roles/{roleID}", func(r chi.Router) {
		r.Get("/", h.getRole)
		r.Put("/", h.updateRole)
		r.Delete("/", h.deleteRole)
		r.Get("/permissions", h.rolePermissions)
		r.Put("/permissions", h.replaceRolePermissions)
	})

	r.Get("/users", h.listUsers)
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/roles", h.userRoles)
		r.Post("/roles", h.assignRole)
		r.Delete("/roles/{roleID}", h.removeRole)
		r.Get("/overrides", h.userOverrides)
		r.Post("/overrides", h.createOverride)
		r.Delete("/overrides/{permission}", h.deleteOverride)
		r.Get("/effective", h.effectivePermissions)
		r.Get("/check", h.checkPermission)
	})

	r.Get("/overview", h.overview)
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=64"`
	DisplayName string   `json:"display_name" validate:"required,max=128"`
	Description string   `json:"description" validate:"max=512"`
	Permissions []string `json:"permissions" validate:"max=64,dive,min=3,max=64"`
}

type updateRoleRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
}

type replacePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"max=64,dive,min=3,max=64"`
}

type assignRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

type createOverrideRequest struct {
	Permission string `json:"permission" validate:"required,min=3,max=64"`
	Granted    *bool  `json:"granted" validate:"required"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.respondError(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), actorID, CreateRoleInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), roleID)
	if err != nil {
		h.respondError(w, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), actorID, roleID, UpdateRoleInput{
		DisplayName: req.DisplayName,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), actorID, roleID); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	names, err := h.service.RolePermissionNames(r.Context(), roleID)
	if err != nil {
		h.respondError(w, "role permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": names})
}

func (h *Handler) replaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	var req replacePermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.ReplaceRolePermissions(r.Context(), actorID, roleID, req.Permissions)
	if err != nil {
		h.respondError(w, "replace role permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filters := UserListFilters{Query: r.URL.Query().Get("q")}
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "page must be a positive integer")
			return
		}
		filters.Page = parsed
	}
	if v := strings.TrimSpace(r.URL.Query().Get("per_page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "per_page must be a positive integer")
			return
		}
		filters.PerPage = parsed
	}

	page, err := h.service.ListUsers(r.Context(), filters)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	memberships, err := h.service.UserRoles(r.Context(), userID)
	if err != nil {
		h.respondError(w, "user roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": memberships})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req assignRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.AssignRole(r.Context(), actorID, userID, req.RoleID); err != nil {
		h.respondError(w, "assign role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.RemoveRole(r.Context(), actorID, userID, roleID); err != nil {
		h.respondError(w, "remove role", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) userOverrides(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	overrides, err := h.service.UserOverrides(r.Context(), userID)
	if err != nil {
		h.respondError(w, "user overrides", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"overrides": overrides})
}

func (h *Handler) createOverride(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req createOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	override, err := h.service.CreateOverride(r.Context(), actorID, userID, CreateOverrideInput{
		Permission: req.Permission,
		Granted:    *req.Granted,
	})
	if err != nil {
		h.respondError(w, "create override", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, override)
}

func (h *Handler) deleteOverride(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	permission := chi.URLParam(r, "permission")
	if strings.TrimSpace(permission) == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission name required")
		return
	}
	if err := h.service.DeleteOverride(r.Context(), actorID, userID, permission); err != nil {
		h.respondError(w, "delete override", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	result, err := h.service.EffectiveForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, "effective permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	permission := strings.TrimSpace(r.URL.Query().Get("permission"))
	if permission == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission query parameter required")
		return
	}
	decision, err := h.service.CheckUser(r.Context(), userID, permission)
	if err != nil {
		h.respondError(w, "check permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Overview(r.Context())
	if err != nil {
		h.respondError(w, "access overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actorID, ok := authz.CurrentUserID(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return 0, false
	}
	return actorID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		fields := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
			}
		}
		httpx.ProblemExtra(w, http.StatusBadRequest, "Validation Failed", "", map[string]any{"fields": fields})
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrDuplicate),
		errors.Is(err, httpx.ErrValidation):
		httpx.RespondError(w, err)
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
