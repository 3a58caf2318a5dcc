package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PermissionWildcard is the action wildcard. A permission with this action
// grants every action on its resource. Wildcards on the resource segment
// are not supported.
// PermissionWildcard — подстановочный знак для действия. Разрешение с таким
// действием выдаёт любое действие над своим ресурсом. Подстановочные знаки
// в сегменте ресурса не поддерживаются.
const PermissionWildcard = "*"

// permissionSegmentRegex constrains both segments of a permission name.
// permissionSegmentRegex ограничивает оба сегмента имени разрешения.
var permissionSegmentRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Permission is an immutable (resource, action) pair. It is persisted as a
// catalog row but compared and matched purely by value: two permissions with
// the same resource and action are the same permission.
// Permission — неизменяемая пара (ресурс, действие). Хранится как запись
// каталога, но сравнивается и сопоставляется исключительно по значению: два
// разрешения с одинаковыми ресурсом и действием — одно и то же разрешение.
type Permission struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`                                                        // Catalog identifier / Идентификатор в каталоге
	Resource    string    `json:"resource" gorm:"size:100;not null;uniqueIndex:idx_permissions_name,priority:1"`        // Resource segment / Сегмент ресурса
	Action      string    `json:"action" gorm:"size:100;not null;uniqueIndex:idx_permissions_name,priority:2"`          // Action segment or "*" / Сегмент действия или "*"
	Description string    `json:"description" gorm:"size:255"`                                                          // Human-readable purpose / Человекочитаемое назначение
	CreatedAt   time.Time `json:"created_at"`                                                                           // Creation timestamp / Время создания
}

// ParsePermission validates and parses a canonical "resource:action" string.
// The string must contain exactly one colon, both segments non-empty and
// lowercase; the action may be the wildcard "*".
// ParsePermission валидирует и разбирает каноническую строку "resource:action".
// Строка должна содержать ровно одно двоеточие, оба сегмента непустые и в
// нижнем регистре; действие может быть подстановочным знаком "*".
func ParsePermission(name string) (Permission, error) {
	parts := strings.Split(name, ":")
	if len(parts) != 2 {
		return Permission{}, ErrInvalidPermissionFormat
	}

	resource, action := parts[0], parts[1]
	if !permissionSegmentRegex.MatchString(resource) {
		return Permission{}, ErrInvalidPermissionFormat
	}
	if action != PermissionWildcard && !permissionSegmentRegex.MatchString(action) {
		return Permission{}, ErrInvalidPermissionFormat
	}

	return Permission{Resource: resource, Action: action}, nil
}

// NewPermission creates a new catalog entry for a validated permission name.
// NewPermission создаёт новую запись каталога для валидированного имени разрешения.
func NewPermission(name, description string) (*Permission, error) {
	p, err := ParsePermission(name)
	if err != nil {
		return nil, err
	}

	p.ID = uuid.New()
	p.Description = description
	p.CreatedAt = time.Now()
	return &p, nil
}

// Name returns the canonical "resource:action" form. Used as the
// deduplication key for effective permission sets.
// Name возвращает каноническую форму "resource:action". Используется как
// ключ дедупликации для эффективных наборов разрешений.
func (p Permission) Name() string {
	return p.Resource + ":" + p.Action
}

// Grants reports whether this held permission satisfies the requested one.
// Directional: a held wildcard action grants any action on the same
// resource, but a requested wildcard is only granted by a held wildcard.
// Grants сообщает, удовлетворяет ли данное разрешение запрошенному.
// Направленно: подстановочное действие выдаёт любое действие над тем же
// ресурсом, но запрошенный wildcard выдаётся только имеющимся wildcard.
func (p Permission) Grants(requested Permission) bool {
	if p.Resource != requested.Resource {
		return false
	}
	return p.Action == PermissionWildcard || p.Action == requested.Action
}

// Matches is the symmetric variant of Grants: true when either side's
// action is the wildcard, or the pairs are equal.
// Matches — симметричный вариант Grants: истина, когда действие любой из
// сторон — wildcard, либо пары равны.
func (p Permission) Matches(other Permission) bool {
	return p.Grants(other) || other.Grants(p)
}

// containsPermission reports whether perms already holds an equal-valued pair.
func containsPermission(perms []Permission, p Permission) bool {
	for _, held := range perms {
		if held.Resource == p.Resource && held.Action == p.Action {
			return true
		}
	}
	return false
}
