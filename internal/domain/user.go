package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account aggregate. Role and individual-permission mutations go
// through the methods below, which enforce the invariants and record domain
// events; callers must not append to the slices directly.
// User — агрегат учётной записи. Мутации ролей и индивидуальных разрешений
// проходят через методы ниже, которые проверяют инварианты и фиксируют
// доменные события; вызывающие не должны изменять срезы напрямую.
type User struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`                     // User identifier / Идентификатор пользователя
	Email        string       `json:"email" gorm:"size:255;not null;uniqueIndex"`         // Unique email / Уникальный email
	PasswordHash string       `json:"-" gorm:"size:255"`                                  // bcrypt hash, empty for OAuth-only accounts / bcrypt-хэш, пустой для OAuth-only аккаунтов
	FullName     string       `json:"full_name" gorm:"size:255;not null"`                 // Full name / Полное имя
	Phone        *string      `json:"phone,omitempty" gorm:"size:32"`                     // Optional phone / Необязательный телефон
	IsActive     bool         `json:"is_active" gorm:"not null;default:true"`             // Active flag / Флаг активности
	Roles        []Role       `json:"roles" gorm:"many2many:user_roles"`                  // Assigned roles, never empty / Назначенные роли, никогда не пусто
	Permissions  []Permission `json:"permissions" gorm:"many2many:user_permissions"`      // Individual grants / Индивидуальные выдачи
	CreatedAt    time.Time    `json:"created_at"`                                         // Creation timestamp / Время создания
	UpdatedAt    time.Time    `json:"updated_at"`                                         // Last update timestamp / Время последнего обновления

	// events collects domain events until the service pulls and publishes them.
	// events накапливает доменные события, пока сервис не заберёт и не опубликует их.
	events []Event `gorm:"-" json:"-"`
}

// NewUser creates an account with an initial role so the aggregate is valid
// from the first save. passwordHash may be empty for OAuth-only accounts.
// NewUser создаёт учётную запись с начальной ролью, чтобы агрегат был валиден
// с первого сохранения. passwordHash может быть пустым для OAuth-only аккаунтов.
func NewUser(email, passwordHash, fullName string, initialRole Role) *User {
	now := time.Now()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		IsActive:     true,
		Roles:        []Role{initialRole},
		Permissions:  []Permission{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.record(UserRegisteredEvent{UserID: u.ID, Email: email, At: now})
	return u
}

// HasRole reports whether the user holds a role with the given name.
// HasRole сообщает, есть ли у пользователя роль с данным именем.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin is derived from role membership and never stored.
// IsAdmin выводится из членства в ролях и никогда не хранится.
func (u *User) IsAdmin() bool {
	return u.HasRole(SystemRoleAdmin)
}

// RoleNames returns the names of all assigned roles, in assignment order.
// RoleNames возвращает имена всех назначенных ролей в порядке назначения.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}

// HasPassword reports whether password login is available for this account.
// HasPassword сообщает, доступен ли для этой учётной записи вход по паролю.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// AssignRole adds a role, rejecting duplicates, and records a domain event
// carrying the acting user.
// AssignRole добавляет роль, отклоняя дубликаты, и фиксирует доменное
// событие с действующим пользователем.
func (u *User) AssignRole(role Role, actorID uuid.UUID) error {
	if u.HasRole(role.Name) {
		return ErrAlreadyHasRole
	}

	u.Roles = append(u.Roles, role)
	u.UpdatedAt = time.Now()
	u.record(RoleAssignedEvent{UserID: u.ID, RoleName: role.Name, ActorID: actorID, At: u.UpdatedAt})
	return nil
}

// RemoveRole removes a role by name. Removing a role the user does not hold
// and removing the last remaining role are both rejected.
// RemoveRole снимает роль по имени. Снятие отсутствующей роли и снятие
// последней оставшейся роли отклоняются.
func (u *User) RemoveRole(name string, actorID uuid.UUID) error {
	idx := -1
	for i, r := range u.Roles {
		if r.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrDoesNotHaveRole
	}
	if len(u.Roles) == 1 {
		return ErrCannotRemoveLastRole
	}

	u.Roles = append(u.Roles[:idx], u.Roles[idx+1:]...)
	u.UpdatedAt = time.Now()
	u.record(RoleRemovedEvent{UserID: u.ID, RoleName: name, ActorID: actorID, At: u.UpdatedAt})
	return nil
}

// HasIndividualPermission reports whether the user holds an equal-valued
// individual grant. Role-derived permissions are not considered here; that
// is the resolution service's job.
// HasIndividualPermission сообщает, есть ли у пользователя индивидуальная
// выдача с таким же значением. Разрешения из ролей здесь не учитываются;
// это задача сервиса разрешений.
func (u *User) HasIndividualPermission(p Permission) bool {
	return containsPermission(u.Permissions, p)
}

// GrantPermission adds an individual permission, rejecting duplicates.
// GrantPermission добавляет индивидуальное разрешение, отклоняя дубликаты.
func (u *User) GrantPermission(p Permission, actorID uuid.UUID) error {
	if u.HasIndividualPermission(p) {
		return ErrPermissionAlreadyGranted
	}

	u.Permissions = append(u.Permissions, p)
	u.UpdatedAt = time.Now()
	u.record(PermissionGrantedEvent{UserID: u.ID, Permission: p.Name(), ActorID: actorID, At: u.UpdatedAt})
	return nil
}

// RevokePermission removes an individual permission, rejecting absences.
// RevokePermission снимает индивидуальное разрешение, отклоняя отсутствующие.
func (u *User) RevokePermission(p Permission, actorID uuid.UUID) error {
	for i, held := range u.Permissions {
		if held.Resource == p.Resource && held.Action == p.Action {
			u.Permissions = append(u.Permissions[:i], u.Permissions[i+1:]...)
			u.UpdatedAt = time.Now()
			u.record(PermissionRevokedEvent{UserID: u.ID, Permission: p.Name(), ActorID: actorID, At: u.UpdatedAt})
			return nil
		}
	}
	return ErrPermissionNotGranted
}

// record appends a domain event to the pending list.
func (u *User) record(e Event) {
	u.events = append(u.events, e)
}

// PullEvents returns pending domain events and clears the list. Called by
// services after a successful save, before publishing to the event bus.
// PullEvents возвращает накопленные доменные события и очищает список.
// Вызывается сервисами после успешного сохранения перед публикацией в шину.
func (u *User) PullEvents() []Event {
	events := u.events
	u.events = nil
	return events
}
