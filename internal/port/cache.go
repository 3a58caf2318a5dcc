package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PermissionCache caches resolved effective permission sets per user.
//
// Invalidation contract: InvalidateUser MUST be called after every mutation
// that can change a user's effective set — role assignment or removal,
// individual grant or revoke, and any permission change on a role the user
// holds. A stale entry here is an authorization bug, not a performance bug.
//
// PermissionCache кэширует вычисленные эффективные наборы разрешений по
// пользователям.
//
// Контракт инвалидации: InvalidateUser ДОЛЖЕН вызываться после каждой
// мутации, способной изменить эффективный набор пользователя — назначение
// или снятие роли, индивидуальная выдача или отзыв, а также любое изменение
// разрешений роли, которой обладает пользователь. Устаревшая запись здесь —
// ошибка авторизации, а не производительности.
type PermissionCache interface {
	// GetUserPermissions returns the cached canonical permission names and
	// whether the entry was present.
	// GetUserPermissions возвращает кэшированные канонические имена
	// разрешений и признак наличия записи.
	GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, bool, error)

	// SetUserPermissions stores the resolved set with a TTL.
	// SetUserPermissions сохраняет вычисленный набор с TTL.
	SetUserPermissions(ctx context.Context, userID uuid.UUID, permissions []string, ttl time.Duration) error

	// InvalidateUser drops the user's cached set.
	// InvalidateUser сбрасывает кэшированный набор пользователя.
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// RateLimitCache provides distributed counters for rate limiting and login
// lockout tracking.
// RateLimitCache предоставляет распределённые счётчики для ограничения
// частоты запросов и учёта блокировок входа.
type RateLimitCache interface {
	// Increment increases the counter for the key, setting the expiry
	// window on first increment, and returns the new value.
	// Increment увеличивает счётчик для ключа, устанавливая окно истечения
	// при первом увеличении, и возвращает новое значение.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// Get returns the current counter value (0 when absent).
	// Get возвращает текущее значение счётчика (0 при отсутствии).
	Get(ctx context.Context, key string) (int64, error)

	// Reset removes the counter.
	// Reset удаляет счётчик.
	Reset(ctx context.Context, key string) error
}
