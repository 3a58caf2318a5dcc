package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event names double as audit trail action identifiers.
// Имена событий одновременно служат идентификаторами действий аудит-лога.
const (
	EventUserRegistered     = "access.user.registered"
	EventUserLoggedIn       = "access.user.login"
	EventUserLoggedOut      = "access.user.logout"
	EventRoleAssigned       = "access.role.assigned"
	EventRoleRemoved        = "access.role.removed"
	EventPermissionGranted  = "access.permission.granted"
	EventPermissionRevoked  = "access.permission.revoked"
	EventOAuthUnlinked      = "access.oauth.unlinked"
	EventTokenReuseDetected = "access.token.reuse_detected"
)

// Event is a fact recorded by an aggregate or service and dispatched through
// the event bus after the owning transaction commits. Handlers must treat
// events as immutable.
// Event — факт, зафиксированный агрегатом или сервисом и разосланный через
// шину событий после фиксации владеющей транзакции. Обработчики должны
// считать события неизменяемыми.
type Event interface {
	// EventName returns the stable action identifier of the event.
	// EventName возвращает стабильный идентификатор действия события.
	EventName() string

	// OccurredAt returns when the event happened.
	// OccurredAt возвращает время, когда событие произошло.
	OccurredAt() time.Time
}

// RoleAssignedEvent is recorded when a role is assigned to a user.
// RoleAssignedEvent фиксируется при назначении роли пользователю.
type RoleAssignedEvent struct {
	UserID   uuid.UUID // Affected user / Затронутый пользователь
	RoleName string    // Assigned role / Назначенная роль
	ActorID  uuid.UUID // Acting user / Действующий пользователь
	At       time.Time
}

func (e RoleAssignedEvent) EventName() string     { return EventRoleAssigned }
func (e RoleAssignedEvent) OccurredAt() time.Time { return e.At }

// RoleRemovedEvent is recorded when a role is removed from a user.
// RoleRemovedEvent фиксируется при снятии роли с пользователя.
type RoleRemovedEvent struct {
	UserID   uuid.UUID
	RoleName string
	ActorID  uuid.UUID
	At       time.Time
}

func (e RoleRemovedEvent) EventName() string     { return EventRoleRemoved }
func (e RoleRemovedEvent) OccurredAt() time.Time { return e.At }

// PermissionGrantedEvent is recorded when an individual permission is granted.
// PermissionGrantedEvent фиксируется при индивидуальной выдаче разрешения.
type PermissionGrantedEvent struct {
	UserID     uuid.UUID
	Permission string // Canonical resource:action / Каноническая форма resource:action
	ActorID    uuid.UUID
	At         time.Time
}

func (e PermissionGrantedEvent) EventName() string     { return EventPermissionGranted }
func (e PermissionGrantedEvent) OccurredAt() time.Time { return e.At }

// PermissionRevokedEvent is recorded when an individual permission is revoked.
// PermissionRevokedEvent фиксируется при отзыве индивидуального разрешения.
type PermissionRevokedEvent struct {
	UserID     uuid.UUID
	Permission string
	ActorID    uuid.UUID
	At         time.Time
}

func (e PermissionRevokedEvent) EventName() string     { return EventPermissionRevoked }
func (e PermissionRevokedEvent) OccurredAt() time.Time { return e.At }

// UserRegisteredEvent is recorded when a new user account is created.
// UserRegisteredEvent фиксируется при создании новой учётной записи.
type UserRegisteredEvent struct {
	UserID uuid.UUID
	Email  string
	At     time.Time
}

func (e UserRegisteredEvent) EventName() string     { return EventUserRegistered }
func (e UserRegisteredEvent) OccurredAt() time.Time { return e.At }

// UserLoggedInEvent is recorded on successful authentication.
// UserLoggedInEvent фиксируется при успешной аутентификации.
type UserLoggedInEvent struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	At        time.Time
}

func (e UserLoggedInEvent) EventName() string     { return EventUserLoggedIn }
func (e UserLoggedInEvent) OccurredAt() time.Time { return e.At }

// UserLoggedOutEvent is recorded when a session is terminated by the user.
// UserLoggedOutEvent фиксируется при завершении сессии пользователем.
type UserLoggedOutEvent struct {
	UserID     uuid.UUID
	AllDevices bool // Logout-all flag / Флаг выхода со всех устройств
	At         time.Time
}

func (e UserLoggedOutEvent) EventName() string     { return EventUserLoggedOut }
func (e UserLoggedOutEvent) OccurredAt() time.Time { return e.At }

// OAuthUnlinkedEvent is recorded when an external identity is disconnected.
// OAuthUnlinkedEvent фиксируется при отключении внешней учётной записи.
type OAuthUnlinkedEvent struct {
	UserID   uuid.UUID
	Provider string
	ActorID  uuid.UUID
	At       time.Time
}

func (e OAuthUnlinkedEvent) EventName() string     { return EventOAuthUnlinked }
func (e OAuthUnlinkedEvent) OccurredAt() time.Time { return e.At }

// TokenReuseDetectedEvent is recorded when a revoked refresh token is
// presented again. The caller only ever sees a generic unauthorized error;
// this event is the internal security trail.
// TokenReuseDetectedEvent фиксируется при повторном предъявлении отозванного
// refresh-токена. Вызывающий видит только общую ошибку авторизации; это
// событие — внутренний след безопасности.
type TokenReuseDetectedEvent struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	At        time.Time
}

func (e TokenReuseDetectedEvent) EventName() string     { return EventTokenReuseDetected }
func (e TokenReuseDetectedEvent) OccurredAt() time.Time { return e.At }
