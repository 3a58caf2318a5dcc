package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/adapter/http/response"
	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// RoleHandler handles role and permission-catalog HTTP requests.
// RoleHandler обрабатывает HTTP запросы ролей и каталога разрешений.
type RoleHandler struct {
	roleService       port.RoleService       // Role management / Управление ролями
	permissionService port.PermissionService // Permission catalog / Каталог разрешений
	logger            *logger.Logger         // Logger instance / Экземпляр логгера
}

// NewRoleHandler creates a new RoleHandler instance.
// NewRoleHandler создаёт новый экземпляр RoleHandler.
func NewRoleHandler(
	roleService port.RoleService,
	permissionService port.PermissionService,
	log *logger.Logger,
) *RoleHandler {
	return &RoleHandler{
		roleService:       roleService,
		permissionService: permissionService,
		logger:            log.WithComponent("role_handler"),
	}
}

// RoleResponse represents a role in API responses.
// RoleResponse представляет роль в ответах API.
type RoleResponse struct {
	ID          string   `json:"id"`          // Role ID / ID роли
	Name        string   `json:"name"`        // Role name / Имя роли
	Description string   `json:"description"` // Purpose / Назначение
	IsSystem    bool     `json:"is_system"`   // Protected flag / Флаг защищённости
	Permissions []string `json:"permissions"` // Attached permission names / Имена прикреплённых разрешений
}

func newRoleResponse(r *domain.Role) RoleResponse {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name())
	}
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: names,
	}
}

// CreateRole handles POST /api/v1/roles.
// CreateRole обрабатывает POST /api/v1/roles.
// @Summary Create role
// @Description Create a role, optionally with an initial permission set
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreateRoleRequest true "Role data"
// @Success 201 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req domain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, newRoleResponse(role))
}

// ListRoles handles GET /api/v1/roles.
// ListRoles обрабатывает GET /api/v1/roles.
// @Summary List roles
// @Description All roles with their permission sets, sorted by name
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]RoleResponse}
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /api/v1/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, newRoleResponse(&roles[i]))
	}
	response.Success(c, out)
}

// GetRole handles GET /api/v1/roles/:id.
// GetRole обрабатывает GET /api/v1/roles/:id.
// @Summary Get role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 200 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /api/v1/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newRoleResponse(role))
}

// UpdateRole handles PATCH /api/v1/roles/:id.
// UpdateRole обрабатывает PATCH /api/v1/roles/:id.
// @Summary Update role
// @Description Rename a role and/or update its description; system roles accept description changes only
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Param request body domain.UpdateRoleRequest true "Fields to update"
// @Success 200 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req domain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newRoleResponse(role))
}

// DeleteRole handles DELETE /api/v1/roles/:id.
// DeleteRole обрабатывает DELETE /api/v1/roles/:id.
// @Summary Delete role
// @Description Delete a regular role; system roles are protected
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id, actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "role deleted"})
}

// AddRolePermission handles POST /api/v1/roles/:id/permissions.
// AddRolePermission обрабатывает POST /api/v1/roles/:id/permissions.
// @Summary Add permission to role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Param request body GrantPermissionRequest true "Permission name"
// @Success 200 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/roles/{id}/permissions [post]
func (h *RoleHandler) AddRolePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	role, err := h.roleService.AddPermissionToRole(c.Request.Context(), id, req.Permission, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newRoleResponse(role))
}

// RemoveRolePermission handles DELETE /api/v1/roles/:id/permissions/:permission.
// The permission name contains a colon, so clients URL-encode it.
// RemoveRolePermission обрабатывает DELETE /api/v1/roles/:id/permissions/:permission.
// Имя разрешения содержит двоеточие, поэтому клиенты кодируют его в URL.
// @Summary Remove permission from role
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Param permission path string true "Permission name (URL-encoded)"
// @Success 200 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/roles/{id}/permissions/{permission} [delete]
func (h *RoleHandler) RemoveRolePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	role, err := h.roleService.RemovePermissionFromRole(c.Request.Context(), id, c.Param("permission"), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newRoleResponse(role))
}

// SetRolePermissions handles PUT /api/v1/roles/:id/permissions.
// SetRolePermissions обрабатывает PUT /api/v1/roles/:id/permissions.
// @Summary Replace role permission set
// @Description Replace the whole permission set; duplicates in the input collapse
// @Tags roles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Param request body domain.SetRolePermissionsRequest true "Permission names"
// @Success 200 {object} response.APIResponse{data=RoleResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /api/v1/roles/{id}/permissions [put]
func (h *RoleHandler) SetRolePermissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req domain.SetRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	role, err := h.roleService.SetRolePermissions(c.Request.Context(), id, req.Permissions, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newRoleResponse(role))
}

// CreatePermission handles POST /api/v1/permissions.
// CreatePermission обрабатывает POST /api/v1/permissions.
// @Summary Create permission
// @Description Register a permission in the catalog
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.CreatePermissionRequest true "Permission data"
// @Success 201 {object} response.APIResponse{data=domain.Permission}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/permissions [post]
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req domain.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	permission, err := h.permissionService.CreatePermission(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, permission)
}

// ListPermissions handles GET /api/v1/permissions.
// ListPermissions обрабатывает GET /api/v1/permissions.
// @Summary List permissions
// @Description The whole permission catalog, sorted by resource then action
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=[]domain.Permission}
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	permissions, err := h.permissionService.ListPermissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, permissions)
}

// DeletePermission handles DELETE /api/v1/permissions/:id.
// DeletePermission обрабатывает DELETE /api/v1/permissions/:id.
// @Summary Delete permission
// @Description Remove a permission from the catalog along with all its attachments
// @Tags permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Permission ID"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /api/v1/permissions/{id} [delete]
func (h *RoleHandler) DeletePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.permissionService.DeletePermission(c.Request.Context(), id, actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "permission deleted"})
}
