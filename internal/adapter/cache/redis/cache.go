// Package redis provides Redis-based cache implementations.
// Пакет redis предоставляет реализации кэша на базе Redis.
//
// This package implements all cache interfaces defined in port package
// using Redis as the underlying storage.
// Этот пакет реализует все интерфейсы кэша, определённые в пакете port,
// используя Redis в качестве хранилища.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/port"
)

// PermissionCache implements port.PermissionCache using Redis.
// PermissionCache реализует интерфейс port.PermissionCache с использованием Redis.
//
// Stores the resolved effective permission set per user as a JSON array of
// canonical "resource:action" names. Entries carry a TTL, but correctness
// relies on explicit invalidation after every access-changing mutation.
// Хранит вычисленный эффективный набор разрешений по пользователям как
// JSON-массив канонических имён "resource:action". Записи имеют TTL, но
// корректность опирается на явную инвалидацию после каждой мутации,
// меняющей доступ.
type PermissionCache struct {
	client *redis.Client // Redis client / Клиент Redis
	prefix string        // Key prefix / Префикс ключа
}

// NewPermissionCache creates a new PermissionCache instance.
// NewPermissionCache создаёт новый экземпляр PermissionCache.
func NewPermissionCache(client *redis.Client) *PermissionCache {
	return &PermissionCache{
		client: client,
		prefix: "authz:permissions",
	}
}

// GetUserPermissions returns the cached canonical permission names and
// whether the entry was present.
// GetUserPermissions возвращает кэшированные канонические имена разрешений
// и признак наличия записи.
func (c *PermissionCache) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, bool, error) {
	val, err := c.client.Get(ctx, c.buildKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Not found in cache / Не найдено в кэше
		}
		return nil, false, apperror.Internal("failed to get cached permissions", err)
	}

	var permissions []string
	if err := json.Unmarshal([]byte(val), &permissions); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		// Повреждённая запись удаляется и считается промахом.
		_ = c.client.Del(ctx, c.buildKey(userID)).Err()
		return nil, false, nil
	}
	return permissions, true, nil
}

// SetUserPermissions stores the resolved set with a TTL.
// SetUserPermissions сохраняет вычисленный набор с TTL.
func (c *PermissionCache) SetUserPermissions(ctx context.Context, userID uuid.UUID, permissions []string, ttl time.Duration) error {
	data, err := json.Marshal(permissions)
	if err != nil {
		return apperror.Internal("failed to marshal permissions", err)
	}
	if err := c.client.Set(ctx, c.buildKey(userID), data, ttl).Err(); err != nil {
		return apperror.Internal("failed to cache permissions", err)
	}
	return nil
}

// InvalidateUser drops the user's cached set.
// InvalidateUser сбрасывает кэшированный набор пользователя.
// Call this after every role or permission mutation affecting the user.
// Вызывайте после каждой мутации ролей или разрешений, затрагивающей пользователя.
func (c *PermissionCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, c.buildKey(userID)).Err(); err != nil {
		return apperror.Internal("failed to invalidate cached permissions", err)
	}
	return nil
}

// buildKey constructs the cache key for a user's permission set.
// buildKey создаёт ключ кэша для набора разрешений пользователя.
func (c *PermissionCache) buildKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID.String())
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.PermissionCache = (*PermissionCache)(nil)

// RateLimitCache implements port.RateLimitCache using Redis.
// RateLimitCache реализует интерфейс port.RateLimitCache с использованием Redis.
//
// Provides rate limiting and login lockout counters using Redis atomic
// operations.
// Предоставляет счётчики ограничения частоты запросов и блокировки входа
// с использованием атомарных операций Redis.
type RateLimitCache struct {
	client *redis.Client // Redis client / Клиент Redis
	prefix string        // Key prefix / Префикс ключа
}

// NewRateLimitCache creates a new RateLimitCache instance.
// NewRateLimitCache создаёт новый экземпляр RateLimitCache.
func NewRateLimitCache(client *redis.Client) *RateLimitCache {
	return &RateLimitCache{
		client: client,
		prefix: "ratelimit",
	}
}

// Increment increments a counter and returns the new value.
// Increment увеличивает счётчик и возвращает новое значение.
// Sets expiration if this is a new key.
// Устанавливает время истечения, если это новый ключ.
func (c *RateLimitCache) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := fmt.Sprintf("%s:%s", c.prefix, key)

	// Use pipeline for atomic INCR + EXPIRE
	// Используем pipeline для атомарных INCR + EXPIRE
	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, apperror.Internal("failed to increment rate limit counter", err)
	}

	return incr.Val(), nil
}

// Get retrieves the current count for a rate limit key.
// Get получает текущее значение счётчика для ключа rate limit.
func (c *RateLimitCache) Get(ctx context.Context, key string) (int64, error) {
	fullKey := fmt.Sprintf("%s:%s", c.prefix, key)
	val, err := c.client.Get(ctx, fullKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil // Key doesn't exist, count is 0 / Ключ не существует, счётчик равен 0
		}
		return 0, apperror.Internal("failed to get rate limit count", err)
	}
	return val, nil
}

// Reset resets the counter for a key.
// Reset сбрасывает счётчик для ключа.
// Use this after successful login to reset failed attempt counter.
// Используйте после успешного входа для сброса счётчика неудачных попыток.
func (c *RateLimitCache) Reset(ctx context.Context, key string) error {
	fullKey := fmt.Sprintf("%s:%s", c.prefix, key)
	if err := c.client.Del(ctx, fullKey).Err(); err != nil {
		return apperror.Internal("failed to reset rate limit counter", err)
	}
	return nil
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.RateLimitCache = (*RateLimitCache)(nil)
