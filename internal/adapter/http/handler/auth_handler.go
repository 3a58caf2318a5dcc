// Package handler provides HTTP request handlers for the access service.
// Пакет handler предоставляет обработчики HTTP запросов для сервиса доступа.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/adapter/http/response"
	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// Context keys set by AuthMiddleware for downstream handlers.
// Ключи контекста, устанавливаемые AuthMiddleware для последующих обработчиков.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRoles  = "roles"
)

// AuthHandler handles authentication HTTP requests and carries the
// token-verification middleware.
// AuthHandler обрабатывает HTTP запросы аутентификации и содержит
// middleware проверки токенов.
type AuthHandler struct {
	authService   port.AuthService   // Authentication service / Сервис аутентификации
	tokenService  port.TokenService  // Access token verifier / Проверка access-токенов
	accessService port.AccessService // Permission checks / Проверки разрешений
	logger        *logger.Logger     // Logger instance / Экземпляр логгера
}

// NewAuthHandler creates a new AuthHandler instance.
// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(
	authService port.AuthService,
	tokenService port.TokenService,
	accessService port.AccessService,
	log *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		tokenService:  tokenService,
		accessService: accessService,
		logger:        log.WithComponent("auth_handler"),
	}
}

// TokenPairResponse represents an issued token pair.
// TokenPairResponse представляет выданную пару токенов.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token / JWT access-токен
	RefreshToken string `json:"refresh_token"` // Opaque refresh token / Непрозрачный refresh-токен
	TokenType    string `json:"token_type"`    // Always "Bearer" / Всегда "Bearer"
	ExpiresIn    int64  `json:"expires_in"`    // Access token lifetime, seconds / Срок жизни access-токена, секунды
}

func newTokenPairResponse(pair *domain.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

// Login handles POST /api/v1/auth/login.
// Login обрабатывает POST /api/v1/auth/login.
// @Summary Login
// @Description Authenticate with email and password, receive a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} response.APIResponse{data=TokenPairResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Failure 429 {object} response.APIResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", map[string]interface{}{
			"details": err.Error(),
		})
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newTokenPairResponse(pair))
}

// Refresh handles POST /api/v1/auth/refresh.
// Refresh обрабатывает POST /api/v1/auth/refresh.
//
// The presented refresh token is single-use: a successful call revokes it
// and returns its successor.
// Предъявленный refresh-токен одноразовый: успешный вызов отзывает его
// и возвращает преемника.
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.RefreshRequest true "Refresh token"
// @Success 200 {object} response.APIResponse{data=TokenPairResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The binding error never echoes the token value back.
		// Ошибка биндинга никогда не возвращает значение токена.
		response.ValidationError(c, "invalid request body", nil)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, newTokenPairResponse(pair))
}

// Logout handles POST /api/v1/auth/logout.
// Logout обрабатывает POST /api/v1/auth/logout.
//
// Idempotent: unknown and already revoked tokens get the same 200.
// Идемпотентен: неизвестные и уже отозванные токены получают тот же 200.
// @Summary Logout
// @Description Revoke a single refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body domain.LogoutRequest true "Refresh token"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req domain.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", nil)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "logged out"})
}

// LogoutAll handles POST /api/v1/auth/logout-all.
// LogoutAll обрабатывает POST /api/v1/auth/logout-all.
// @Summary Logout everywhere
// @Description Revoke every active refresh token of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /api/v1/auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "all sessions revoked"})
}

// AuthMiddleware returns JWT authentication middleware. On success the
// verified identity is stored in the request context under ContextUserID,
// ContextEmail and ContextRoles.
// AuthMiddleware возвращает middleware JWT-аутентификации. При успехе
// проверенная идентичность сохраняется в контексте запроса под ключами
// ContextUserID, ContextEmail и ContextRoles.
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := h.tokenService.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRoles, claims.Roles)

		// Propagate identity to the logging context.
		// Пробрасываем идентичность в контекст логирования.
		ctx := logger.WithUserIDContext(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePermission returns authorization middleware for a single
// "resource:action" permission. Roles in the token are advisory; the
// decision comes from the resolved effective permission set, so role and
// grant changes take effect without re-login.
// RequirePermission возвращает middleware авторизации для одного разрешения
// "resource:action". Роли в токене носят справочный характер; решение
// принимается по вычисленному эффективному набору разрешений, поэтому
// изменения ролей и выдач действуют без повторного входа.
func (h *AuthHandler) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := authenticatedUserID(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		allowed, err := h.accessService.UserHasPermission(c.Request.Context(), userID, permission)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !allowed {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// authenticatedUserID extracts the verified user ID set by AuthMiddleware.
// authenticatedUserID извлекает проверенный ID пользователя из AuthMiddleware.
func authenticatedUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextUserID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
