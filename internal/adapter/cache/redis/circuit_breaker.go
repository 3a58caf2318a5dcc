// Package redis provides Redis-based cache implementations with circuit breaker protection.
// Пакет redis предоставляет реализации кэша на базе Redis с защитой circuit breaker.
package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/pkg/circuitbreaker"
	"github.com/andrewhigh08/access-service/internal/port"
)

// CircuitBreakerConfig holds configuration for cache circuit breakers.
// CircuitBreakerConfig содержит конфигурацию circuit breaker для кэша.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of failures before opening the circuit.
	// MaxFailures - количество сбоев до размыкания цепи.
	MaxFailures int

	// Timeout is the duration to wait before testing if service recovered.
	// Timeout - время ожидания перед проверкой восстановления сервиса.
	Timeout time.Duration

	// OnStateChange is called when circuit breaker state changes.
	// OnStateChange вызывается при изменении состояния circuit breaker.
	OnStateChange func(name string, from, to circuitbreaker.State)
}

// DefaultCircuitBreakerConfig returns default circuit breaker configuration for Redis.
// DefaultCircuitBreakerConfig возвращает конфигурацию circuit breaker по умолчанию для Redis.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
	}
}

// ==================== Permission Cache with Circuit Breaker ====================

// PermissionCacheWithCB wraps PermissionCache with circuit breaker protection.
// PermissionCacheWithCB оборачивает PermissionCache с защитой circuit breaker.
type PermissionCacheWithCB struct {
	cache *PermissionCache
	cb    *circuitbreaker.CircuitBreaker
}

// NewPermissionCacheWithCB creates a new PermissionCache with circuit breaker.
// NewPermissionCacheWithCB создаёт новый PermissionCache с circuit breaker.
func NewPermissionCacheWithCB(cache *PermissionCache, config CircuitBreakerConfig) *PermissionCacheWithCB {
	cbConfig := circuitbreaker.Config{
		Name:                "redis-permission-cache",
		MaxFailures:         config.MaxFailures,
		Timeout:             config.Timeout,
		MaxHalfOpenRequests: 1,
		OnStateChange:       config.OnStateChange,
	}
	return &PermissionCacheWithCB{
		cache: cache,
		cb:    circuitbreaker.New(cbConfig),
	}
}

// GetUserPermissions retrieves the cached set with circuit breaker protection.
// On circuit breaker open it reports a cache miss so resolution falls back to
// the database (graceful degradation).
// GetUserPermissions получает кэшированный набор с защитой circuit breaker.
// При открытом circuit breaker сообщает о промахе, и вычисление идёт через
// базу данных (graceful degradation).
func (c *PermissionCacheWithCB) GetUserPermissions(ctx context.Context, userID uuid.UUID) ([]string, bool, error) {
	type result struct {
		permissions []string
		found       bool
	}

	r, cbErr := circuitbreaker.ExecuteWithResult(ctx, c.cb, func(ctx context.Context) (result, error) {
		p, f, e := c.cache.GetUserPermissions(ctx, userID)
		return result{permissions: p, found: f}, e
	})

	if cbErr != nil {
		return nil, false, nil //nolint:nilerr // intentional: graceful degradation on CB open
	}

	return r.permissions, r.found, nil
}

// SetUserPermissions stores the resolved set with circuit breaker protection.
// SetUserPermissions сохраняет вычисленный набор с защитой circuit breaker.
func (c *PermissionCacheWithCB) SetUserPermissions(ctx context.Context, userID uuid.UUID, permissions []string, ttl time.Duration) error {
	return c.cb.Execute(ctx, func(ctx context.Context) error {
		return c.cache.SetUserPermissions(ctx, userID, permissions, ttl)
	})
}

// InvalidateUser drops the user's cached set with circuit breaker protection.
// Invalidation failures are NOT swallowed: a stale permission set is an
// authorization bug, so the caller must see the error.
// InvalidateUser сбрасывает кэшированный набор пользователя с защитой
// circuit breaker. Ошибки инвалидации НЕ проглатываются: устаревший набор
// разрешений — ошибка авторизации, вызывающая сторона должна видеть ошибку.
func (c *PermissionCacheWithCB) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	return c.cb.Execute(ctx, func(ctx context.Context) error {
		return c.cache.InvalidateUser(ctx, userID)
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
// CircuitBreakerState возвращает текущее состояние circuit breaker.
func (c *PermissionCacheWithCB) CircuitBreakerState() circuitbreaker.State {
	return c.cb.State()
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.PermissionCache = (*PermissionCacheWithCB)(nil)

// ==================== Rate Limit Cache with Circuit Breaker ====================

// RateLimitCacheWithCB wraps RateLimitCache with circuit breaker protection.
// RateLimitCacheWithCB оборачивает RateLimitCache с защитой circuit breaker.
type RateLimitCacheWithCB struct {
	cache *RateLimitCache
	cb    *circuitbreaker.CircuitBreaker
}

// NewRateLimitCacheWithCB creates a new RateLimitCache with circuit breaker.
// NewRateLimitCacheWithCB создаёт новый RateLimitCache с circuit breaker.
func NewRateLimitCacheWithCB(cache *RateLimitCache, config CircuitBreakerConfig) *RateLimitCacheWithCB {
	cbConfig := circuitbreaker.Config{
		Name:                "redis-ratelimit-cache",
		MaxFailures:         config.MaxFailures,
		Timeout:             config.Timeout,
		MaxHalfOpenRequests: 1,
		OnStateChange:       config.OnStateChange,
	}
	return &RateLimitCacheWithCB{
		cache: cache,
		cb:    circuitbreaker.New(cbConfig),
	}
}

// Increment increments a rate limit counter with circuit breaker protection.
// Increment увеличивает счётчик rate limit с защитой circuit breaker.
func (c *RateLimitCacheWithCB) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	return circuitbreaker.ExecuteWithResult(ctx, c.cb, func(ctx context.Context) (int64, error) {
		return c.cache.Increment(ctx, key, window)
	})
}

// Get retrieves current count with circuit breaker protection.
// Get получает текущий счётчик с защитой circuit breaker.
func (c *RateLimitCacheWithCB) Get(ctx context.Context, key string) (int64, error) {
	return circuitbreaker.ExecuteWithResult(ctx, c.cb, func(ctx context.Context) (int64, error) {
		return c.cache.Get(ctx, key)
	})
}

// Reset resets a rate limit counter with circuit breaker protection.
// Reset сбрасывает счётчик rate limit с защитой circuit breaker.
func (c *RateLimitCacheWithCB) Reset(ctx context.Context, key string) error {
	return c.cb.Execute(ctx, func(ctx context.Context) error {
		return c.cache.Reset(ctx, key)
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
// CircuitBreakerState возвращает текущее состояние circuit breaker.
func (c *RateLimitCacheWithCB) CircuitBreakerState() circuitbreaker.State {
	return c.cb.State()
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.RateLimitCache = (*RateLimitCacheWithCB)(nil)
