package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/adapter/http/response"
	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// UserHandler handles account management HTTP requests.
// UserHandler обрабатывает HTTP запросы управления учётными записями.
type UserHandler struct {
	userService   port.UserService   // Account service / Сервис учётных записей
	accessService port.AccessService // Effective permission resolution / Вычисление эффективных разрешений
	auditService  port.AuditService  // Audit trail queries / Запросы аудит-лога
	logger        *logger.Logger     // Logger instance / Экземпляр логгера
}

// NewUserHandler creates a new UserHandler instance.
// NewUserHandler создаёт новый экземпляр UserHandler.
func NewUserHandler(
	userService port.UserService,
	accessService port.AccessService,
	auditService port.AuditService,
	log *logger.Logger,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		accessService: accessService,
		auditService:  auditService,
		logger:        log.WithComponent("user_handler"),
	}
}

// UserResponse represents a user in API responses. The password hash never
// leaves the service.
// UserResponse представляет пользователя в ответах API. Хэш пароля никогда
// не покидает сервис.
type UserResponse struct {
	ID          string   `json:"id"`                    // User ID / ID пользователя
	Email       string   `json:"email"`                 // User email / Email пользователя
	FullName    string   `json:"full_name"`             // Full name / Полное имя
	IsActive    bool     `json:"is_active"`             // Active flag / Флаг активности
	IsAdmin     bool     `json:"is_admin"`              // Derived from roles / Выводится из ролей
	Roles       []string `json:"roles"`                 // Assigned role names / Имена назначенных ролей
	Permissions []string `json:"permissions,omitempty"` // Individual grants / Индивидуальные выдачи
	CreatedAt   string   `json:"created_at,omitempty"`  // Creation timestamp / Время создания
}

func newUserResponse(u *domain.User) UserResponse {
	grants := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		grants = append(grants, p.Name())
	}
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsAdmin:     u.IsAdmin(),
		Roles:       u.RoleNames(),
		Permissions: grants,
		CreatedAt:   u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// Register handles POST /api/v1/users.
// Register обрабатывает POST /api/v1/users.
// @Summary Register user
// @Description Create a new account with the default role
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.RegisterUserRequest true "Account data"
// @Success 201 {object} response.APIResponse{data=UserResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req domain.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, newUserResponse(user))
}

// GetUser handles GET /api/v1/users/:id.
// GetUser обрабатывает GET /api/v1/users/:id.
// @Summary Get user
// @Description Get account details with roles and individual grants
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse{data=UserResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newUserResponse(user))
}

// AssignRoleRequest names the role to assign.
// AssignRoleRequest называет назначаемую роль.
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,min=2,max=50"` // Role name / Имя роли
}

// AssignRole handles POST /api/v1/users/:id/roles.
// AssignRole обрабатывает POST /api/v1/users/:id/roles.
// @Summary Assign role
// @Description Assign a role to a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body AssignRoleRequest true "Role name"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/roles [post]
func (h *UserHandler) AssignRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req AssignRoleRequest
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

	if err := h.userService.AssignRole(c.Request.Context(), userID, req.Role, actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "role assigned"})
}

// RemoveRole handles DELETE /api/v1/users/:id/roles/:role.
// RemoveRole обрабатывает DELETE /api/v1/users/:id/roles/:role.
// @Summary Remove role
// @Description Remove a role from a user; the last role cannot be removed
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param role path string true "Role name"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.userService.RemoveRole(c.Request.Context(), userID, c.Param("role"), actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "role removed"})
}

// GrantPermissionRequest names the individual permission to grant.
// GrantPermissionRequest называет выдаваемое индивидуальное разрешение.
type GrantPermissionRequest struct {
	Permission string `json:"permission" binding:"required,min=3"` // Canonical resource:action / Каноническая форма resource:action
}

// GrantPermission handles POST /api/v1/users/:id/permissions.
// GrantPermission обрабатывает POST /api/v1/users/:id/permissions.
// @Summary Grant permission
// @Description Grant an individual permission to a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body GrantPermissionRequest true "Permission name"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/permissions [post]
func (h *UserHandler) GrantPermission(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
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

	if err := h.userService.GrantPermission(c.Request.Context(), userID, req.Permission, actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "permission granted"})
}

// RevokePermission handles DELETE /api/v1/users/:id/permissions/:permission.
// The permission name contains a colon, so clients URL-encode it.
// RevokePermission обрабатывает DELETE /api/v1/users/:id/permissions/:permission.
// Имя разрешения содержит двоеточие, поэтому клиенты кодируют его в URL.
// @Summary Revoke permission
// @Description Revoke an individual permission from a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param permission path string true "Permission name (URL-encoded)"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/permissions/{permission} [delete]
func (h *UserHandler) RevokePermission(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.userService.RevokePermission(c.Request.Context(), userID, c.Param("permission"), actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "permission revoked"})
}

// Me handles GET /api/v1/users/me.
// Me обрабатывает GET /api/v1/users/me.
// @Summary Current user
// @Description Account details of the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=UserResponse}
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newUserResponse(user))
}

// MyPermissions handles GET /api/v1/users/me/permissions.
// MyPermissions обрабатывает GET /api/v1/users/me/permissions.
// @Summary My effective permissions
// @Description Resolved permission set of the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse{data=domain.EffectivePermissionsResponse}
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/users/me/permissions [get]
func (h *UserHandler) MyPermissions(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	permissions, err := h.accessService.GetEffectivePermissions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, domain.EffectivePermissionsResponse{
		UserID:      userID,
		Permissions: permissions,
	})
}

// CheckPermission handles POST /api/v1/users/me/permissions/check.
// CheckPermission обрабатывает POST /api/v1/users/me/permissions/check.
//
// Malformed permission strings answer "allowed": false rather than an error,
// so probing input never distinguishes bad syntax from a denied permission.
// Некорректные строки разрешений дают "allowed": false, а не ошибку, поэтому
// зондирующий ввод не отличает неверный синтаксис от отказа в разрешении.
// @Summary Check permission
// @Description Ask whether the authenticated user holds a permission
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.PermissionCheckRequest true "Permission to check"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/users/me/permissions/check [post]
func (h *UserHandler) CheckPermission(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req domain.PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	allowed, err := h.accessService.UserHasPermission(c.Request.Context(), userID, req.Permission)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"permission": req.Permission,
		"allowed":    allowed,
	})
}

// LinkOAuthRequest attaches an external identity.
// LinkOAuthRequest привязывает внешнюю учётную запись.
type LinkOAuthRequest struct {
	Provider       string `json:"provider" binding:"required,min=2,max=50"`   // Provider name / Имя провайдера
	ProviderUserID string `json:"provider_user_id" binding:"required,max=255"` // Subject at the provider / Идентификатор у провайдера
	Email          string `json:"email" binding:"omitempty,email"`            // Email reported by the provider / Email от провайдера
}

// LinkOAuth handles POST /api/v1/users/:id/oauth.
// LinkOAuth обрабатывает POST /api/v1/users/:id/oauth.
// @Summary Link OAuth identity
// @Description Attach an external provider identity to the account
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body LinkOAuthRequest true "Provider identity"
// @Success 201 {object} response.APIResponse{data=domain.OAuthConnection}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/oauth [post]
func (h *UserHandler) LinkOAuth(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req LinkOAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	conn, err := h.userService.LinkOAuth(c.Request.Context(), userID, req.Provider, req.ProviderUserID, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, conn)
}

// UnlinkOAuth handles DELETE /api/v1/users/:id/oauth/:provider.
// UnlinkOAuth обрабатывает DELETE /api/v1/users/:id/oauth/:provider.
// @Summary Unlink OAuth identity
// @Description Detach an external identity; the last auth method of a password-less account stays
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param provider path string true "Provider name"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /api/v1/users/{id}/oauth/{provider} [delete]
func (h *UserHandler) UnlinkOAuth(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	actorID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.userService.UnlinkOAuth(c.Request.Context(), userID, c.Param("provider"), actorID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "oauth identity unlinked"})
}

// AuditLogs handles GET /api/v1/users/:id/audit.
// AuditLogs обрабатывает GET /api/v1/users/:id/audit.
// @Summary User audit trail
// @Description Recent audit entries affecting the user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} response.APIResponse{data=[]domain.AuditLog}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /api/v1/users/{id}/audit [get]
func (h *UserHandler) AuditLogs(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	logs, err := h.auditService.GetUserAuditLogs(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, logs)
}
