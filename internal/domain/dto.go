package domain

import "github.com/google/uuid"

// LoginRequest is the payload for password authentication.
// LoginRequest — запрос для аутентификации по паролю.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`   // User email / Email пользователя
	Password string `json:"password" binding:"required"`      // Plaintext password / Пароль в открытом виде
}

// RefreshRequest exchanges a refresh token for a new token pair.
// RefreshRequest обменивает refresh-токен на новую пару токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required,len=64,hexadecimal"` // Opaque token / Непрозрачный токен
}

// LogoutRequest revokes a single refresh token.
// LogoutRequest отзывает один refresh-токен.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"` // Token to revoke / Токен для отзыва
}

// TokenPair is returned by login and refresh.
// TokenPair возвращается при входе и обновлении.
type TokenPair struct {
	AccessToken  string `json:"access_token"`  // Short-lived JWT / Краткоживущий JWT
	RefreshToken string `json:"refresh_token"` // Rotating opaque token / Ротируемый непрозрачный токен
	ExpiresIn    int64  `json:"expires_in"`    // Access token lifetime, seconds / Срок жизни access-токена, секунды
}

// RegisterUserRequest creates a new account.
// RegisterUserRequest создаёт новую учётную запись.
type RegisterUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`        // User email / Email пользователя
	Password string  `json:"password" binding:"required,min=8"`     // Initial password / Начальный пароль
	FullName string  `json:"full_name" binding:"required"`          // Full name / Полное имя
	Phone    *string `json:"phone,omitempty" binding:"omitempty"`   // Optional phone / Необязательный телефон
}

// CreateRoleRequest creates a regular role.
// CreateRoleRequest создаёт обычную роль.
type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=50"`   // Role name / Имя роли
	Description string   `json:"description" binding:"max=255"`          // Purpose / Назначение
	Permissions []string `json:"permissions" binding:"omitempty,dive,min=3"` // Initial permission names / Начальные имена разрешений
}

// UpdateRoleRequest renames a role and/or updates its description.
// UpdateRoleRequest переименовывает роль и/или обновляет её описание.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=50"` // New name / Новое имя
	Description *string `json:"description,omitempty" binding:"omitempty,max=255"` // New description / Новое описание
}

// SetRolePermissionsRequest bulk-replaces a role's permission set.
// SetRolePermissionsRequest полностью заменяет набор разрешений роли.
type SetRolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required,dive,min=3"` // Canonical names / Канонические имена
}

// CreatePermissionRequest registers a permission in the catalog.
// CreatePermissionRequest регистрирует разрешение в каталоге.
type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required,min=3"` // Canonical resource:action / Каноническая форма resource:action
	Description string `json:"description" binding:"max=255"` // Purpose / Назначение
}

// EffectivePermissionsResponse lists a user's resolved permission set.
// EffectivePermissionsResponse перечисляет вычисленный набор разрешений пользователя.
type EffectivePermissionsResponse struct {
	UserID      uuid.UUID `json:"user_id"`     // Subject / Субъект
	Permissions []string  `json:"permissions"` // Sorted canonical names / Отсортированные канонические имена
}

// PermissionCheckRequest asks whether a user holds a permission.
// PermissionCheckRequest спрашивает, есть ли у пользователя разрешение.
type PermissionCheckRequest struct {
	Permission string `json:"permission" binding:"required"` // Requested resource:action / Запрошенная форма resource:action
}
