package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/domain"
)

// AccessClaims is the verified content of an access token. Times are
// second-precision, matching the iat/exp JWT claims.
// AccessClaims — проверенное содержимое access-токена. Времена имеют
// точность до секунды, как JWT-поля iat/exp.
type AccessClaims struct {
	UserID    string    // Subject user ID / ID пользователя-субъекта
	Email     string    // Email at issue time / Email на момент выдачи
	Roles     []string  // Role names at issue time / Имена ролей на момент выдачи
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
}

// TokenService issues and verifies signed access tokens. Implementations
// must be pure and safe for concurrent use; the signing secret is fixed at
// construction.
// TokenService выпускает и проверяет подписанные access-токены. Реализации
// должны быть чистыми и безопасными для конкурентного использования; секрет
// подписи фиксируется при создании.
type TokenService interface {
	// GenerateAccessToken signs a token carrying the user's identity and
	// current role names.
	// GenerateAccessToken подписывает токен с идентичностью пользователя
	// и текущими именами ролей.
	GenerateAccessToken(user *domain.User) (string, time.Time, error)

	// ValidateAccessToken verifies the signature and expiry and returns the
	// claims. Expired tokens are rejected even with a valid signature.
	// ValidateAccessToken проверяет подпись и срок действия и возвращает
	// клеймы. Истёкшие токены отклоняются даже с корректной подписью.
	ValidateAccessToken(tokenString string) (*AccessClaims, error)
}

// AuthService defines authentication operations: login, refresh rotation
// and logout.
// AuthService определяет операции аутентификации: вход, ротацию refresh
// и выход.
type AuthService interface {
	// Login authenticates by email and password and issues a token pair.
	// Login аутентифицирует по email и паролю и выпускает пару токенов.
	Login(ctx context.Context, req domain.LoginRequest, ipAddress, userAgent string) (*domain.TokenPair, error)

	// Refresh rotates a refresh token: the old token is revoked with a link
	// to its successor, and reuse of a revoked token revokes the user's
	// whole token family. All failure modes surface as a generic
	// unauthorized error.
	// Refresh ротирует refresh-токен: старый токен отзывается со ссылкой на
	// преемника, а повторное использование отозванного токена отзывает всё
	// семейство токенов пользователя. Все виды отказов возвращаются как
	// общая ошибка авторизации.
	Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*domain.TokenPair, error)

	// Logout revokes a single refresh token. Idempotent: unknown or already
	// revoked tokens succeed without leaking their state.
	// Logout отзывает один refresh-токен. Идемпотентен: неизвестные или уже
	// отозванные токены завершаются успехом, не раскрывая своего состояния.
	Logout(ctx context.Context, refreshToken string) error

	// LogoutAll revokes every active refresh token of the user.
	// LogoutAll отзывает все активные refresh-токены пользователя.
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

// AccessService resolves effective permissions and answers authorization
// checks.
// AccessService вычисляет эффективные разрешения и отвечает на проверки
// авторизации.
type AccessService interface {
	// GetEffectivePermissions returns the deduplicated union of all role
	// permissions and individual grants, as sorted canonical names.
	// GetEffectivePermissions возвращает дедуплицированное объединение всех
	// разрешений ролей и индивидуальных выдач в виде отсортированных
	// канонических имён.
	GetEffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error)

	// UserHasPermission checks a single "resource:action" request. A
	// malformed request string yields false, never an error.
	// UserHasPermission проверяет один запрос "resource:action".
	// Некорректная строка запроса даёт false, но не ошибку.
	UserHasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error)

	// UserHasAnyPermission short-circuits on the first granted permission.
	// UserHasAnyPermission завершается на первом выданном разрешении.
	UserHasAnyPermission(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error)

	// UserHasAllPermissions short-circuits on the first denied permission.
	// UserHasAllPermissions завершается на первом отклонённом разрешении.
	UserHasAllPermissions(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error)

	// InvalidateUserPermissions drops the user's cached effective set. Must
	// be called on every role or permission mutation affecting the user.
	// InvalidateUserPermissions сбрасывает кэшированный эффективный набор
	// пользователя. Должен вызываться при каждой мутации ролей или
	// разрешений, затрагивающей пользователя.
	InvalidateUserPermissions(ctx context.Context, userID uuid.UUID) error
}

// RoleService defines role management operations.
// RoleService определяет операции управления ролями.
type RoleService interface {
	CreateRole(ctx context.Context, req domain.CreateRoleRequest, actorID uuid.UUID) (*domain.Role, error)
	GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req domain.UpdateRoleRequest, actorID uuid.UUID) (*domain.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error

	AddPermissionToRole(ctx context.Context, roleID uuid.UUID, permission string, actorID uuid.UUID) (*domain.Role, error)
	RemovePermissionFromRole(ctx context.Context, roleID uuid.UUID, permission string, actorID uuid.UUID) (*domain.Role, error)
	SetRolePermissions(ctx context.Context, roleID uuid.UUID, permissions []string, actorID uuid.UUID) (*domain.Role, error)
}

// PermissionService manages the permission catalog.
// PermissionService управляет каталогом разрешений.
type PermissionService interface {
	CreatePermission(ctx context.Context, req domain.CreatePermissionRequest, actorID uuid.UUID) (*domain.Permission, error)
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	DeletePermission(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
}

// UserService defines account management operations.
// UserService определяет операции управления учётными записями.
type UserService interface {
	Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)

	AssignRole(ctx context.Context, userID uuid.UUID, roleName string, actorID uuid.UUID) error
	RemoveRole(ctx context.Context, userID uuid.UUID, roleName string, actorID uuid.UUID) error

	GrantPermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) error
	RevokePermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) error

	// LinkOAuth attaches an external identity to the account.
	// LinkOAuth привязывает внешнюю учётную запись к аккаунту.
	LinkOAuth(ctx context.Context, userID uuid.UUID, provider, providerUserID, email string) (*domain.OAuthConnection, error)

	// UnlinkOAuth detaches an external identity. Removing the last
	// authentication method of a password-less account is rejected.
	// UnlinkOAuth отвязывает внешнюю учётную запись. Удаление последнего
	// способа аутентификации у аккаунта без пароля отклоняется.
	UnlinkOAuth(ctx context.Context, userID uuid.UUID, provider string, actorID uuid.UUID) error
}

// AuditService records and queries the audit trail.
// AuditService записывает и запрашивает аудит-лог.
type AuditService interface {
	LogAction(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID string, details map[string]interface{}) error
	GetUserAuditLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error)
}

// EventPublisher dispatches domain events to subscribers. Dispatch is
// best-effort: handler failures are logged, never returned to the caller.
// EventPublisher рассылает доменные события подписчикам. Рассылка —
// best-effort: сбои обработчиков логируются и никогда не возвращаются
// вызывающему.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event)
}
