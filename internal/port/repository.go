// Package port defines interfaces (ports) for the application's external dependencies.
// Пакет port определяет интерфейсы (порты) для внешних зависимостей приложения.
//
// This package follows the Hexagonal Architecture (Ports and Adapters) pattern,
// where ports define the contracts that adapters must implement.
// Этот пакет следует паттерну Гексагональной Архитектуры (Порты и Адаптеры),
// где порты определяют контракты, которые должны реализовывать адаптеры.
package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
)

// UserRepository defines persistence operations for user aggregates.
// UserRepository определяет операции хранения для агрегатов пользователей.
type UserRepository interface {
	// Create persists a new user with its role associations.
	// Create сохраняет нового пользователя со связями ролей.
	Create(ctx context.Context, user *domain.User) error

	// CreateTx persists a new user within an existing transaction.
	// CreateTx сохраняет нового пользователя в рамках существующей транзакции.
	CreateTx(ctx context.Context, tx *gorm.DB, user *domain.User) error

	// FindByID loads a user with roles (including role permissions) and
	// individual permissions preloaded.
	// FindByID загружает пользователя с ролями (включая разрешения ролей)
	// и индивидуальными разрешениями.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindByEmail loads a user by email, associations preloaded.
	// FindByEmail загружает пользователя по email со связями.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update saves the aggregate, replacing role and permission associations.
	// Update сохраняет агрегат, заменяя связи ролей и разрешений.
	Update(ctx context.Context, user *domain.User) error

	// UpdateTx saves the aggregate within an existing transaction.
	// UpdateTx сохраняет агрегат в рамках существующей транзакции.
	UpdateTx(ctx context.Context, tx *gorm.DB, user *domain.User) error

	// ExistsByEmail checks whether an account with the email exists.
	// ExistsByEmail проверяет, существует ли учётная запись с данным email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// HardDelete permanently removes a user. Used by compensating
	// transactions when a multi-step registration fails.
	// HardDelete безвозвратно удаляет пользователя. Используется
	// компенсирующими транзакциями при сбое многошаговой регистрации.
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// RoleRepository defines persistence operations for roles.
// RoleRepository определяет операции хранения для ролей.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	FindAll(ctx context.Context) ([]domain.Role, error)

	// Update saves the role, replacing its permission associations.
	// Update сохраняет роль, заменяя её связи с разрешениями.
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByUserID returns the user's roles with permissions preloaded.
	// FindByUserID возвращает роли пользователя с загруженными разрешениями.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Role, error)

	// FindPermissionsByRoleID returns the permissions attached to a role.
	// FindPermissionsByRoleID возвращает разрешения, прикреплённые к роли.
	FindPermissionsByRoleID(ctx context.Context, roleID uuid.UUID) ([]domain.Permission, error)

	// FindUserIDsByRoleID returns the IDs of users holding the role.
	// Used for per-member cache invalidation on role mutations.
	// FindUserIDsByRoleID возвращает ID пользователей с данной ролью.
	// Используется для поимённой инвалидации кэша при мутациях роли.
	FindUserIDsByRoleID(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
}

// PermissionRepository defines persistence operations for the permission
// catalog and individual user grants.
// PermissionRepository определяет операции хранения для каталога разрешений
// и индивидуальных выдач пользователям.
type PermissionRepository interface {
	Create(ctx context.Context, permission *domain.Permission) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Permission, error)

	// FindByName looks up a catalog entry by its canonical "resource:action" form.
	// FindByName ищет запись каталога по канонической форме "resource:action".
	FindByName(ctx context.Context, name string) (*domain.Permission, error)
	FindAll(ctx context.Context) ([]domain.Permission, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByUserID returns the user's individual grants only; role-derived
	// permissions are resolved by the access service.
	// FindByUserID возвращает только индивидуальные выдачи пользователя;
	// разрешения из ролей вычисляет сервис доступа.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error)

	// AssignToUser adds an individual grant row.
	// AssignToUser добавляет запись индивидуальной выдачи.
	AssignToUser(ctx context.Context, userID, permissionID uuid.UUID) error

	// RemoveFromUser removes an individual grant row.
	// RemoveFromUser удаляет запись индивидуальной выдачи.
	RemoveFromUser(ctx context.Context, userID, permissionID uuid.UUID) error

	// UserHasPermission checks an individual grant by exact identity.
	// UserHasPermission проверяет индивидуальную выдачу по точному совпадению.
	UserHasPermission(ctx context.Context, userID, permissionID uuid.UUID) (bool, error)
}

// RefreshTokenRepository defines persistence operations for refresh tokens.
// RefreshTokenRepository определяет операции хранения для refresh-токенов.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	CreateTx(ctx context.Context, tx *gorm.DB, token *domain.RefreshToken) error

	// FindByToken looks up a token by its opaque value. The value is the
	// primary key and the credential; a miss surfaces as not-found and the
	// value itself is never logged.
	// FindByToken ищет токен по его непрозрачному значению. Значение —
	// первичный ключ и учётные данные; промах возвращается как not-found,
	// само значение никогда не логируется.
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)

	// Revoke marks a token revoked if and only if it is not revoked yet
	// (compare-and-set on revoked_at IS NULL) and returns the number of
	// rows updated. Zero rows means a concurrent revocation won.
	// Revoke помечает токен отозванным, только если он ещё не отозван
	// (compare-and-set по revoked_at IS NULL), и возвращает число
	// обновлённых строк. Ноль строк означает, что победил конкурентный отзыв.
	Revoke(ctx context.Context, token string, replacedBy *string) (int64, error)

	// RevokeTx is Revoke within an existing transaction.
	// RevokeTx — Revoke в рамках существующей транзакции.
	RevokeTx(ctx context.Context, tx *gorm.DB, token string, replacedBy *string) (int64, error)

	// RevokeAllForUser revokes every active token of the user.
	// RevokeAllForUser отзывает все активные токены пользователя.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error

	// RevokeAllForUserTx is RevokeAllForUser within an existing transaction.
	// RevokeAllForUserTx — RevokeAllForUser в рамках существующей транзакции.
	RevokeAllForUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	// DeleteExpired removes tokens expired before the cutoff. Housekeeping.
	// DeleteExpired удаляет токены, истёкшие до отсечки. Уборка.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// OAuthConnectionRepository defines persistence operations for external
// identity links.
// OAuthConnectionRepository определяет операции хранения для связей с
// внешними учётными записями.
type OAuthConnectionRepository interface {
	Create(ctx context.Context, conn *domain.OAuthConnection) error
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.OAuthConnection, error)
	FindByProviderSubject(ctx context.Context, provider, providerUserID string) (*domain.OAuthConnection, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditLogRepository defines persistence operations for the audit trail.
// AuditLogRepository определяет операции хранения для аудит-лога.
type AuditLogRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx *gorm.DB, log *domain.AuditLog) error
	FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error)
	FindByResourceID(ctx context.Context, resourceType, resourceID string, limit int) ([]domain.AuditLog, error)
}

// Transaction manages database transactions spanning several repositories.
// Transaction управляет транзакциями БД, охватывающими несколько репозиториев.
type Transaction interface {
	Begin(ctx context.Context) (*gorm.DB, error)
	Commit(tx *gorm.DB) error
	Rollback(tx *gorm.DB) error

	// WithTransaction runs fn inside a transaction, committing on nil and
	// rolling back on error or panic.
	// WithTransaction выполняет fn внутри транзакции, фиксируя при nil и
	// откатывая при ошибке или панике.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}
