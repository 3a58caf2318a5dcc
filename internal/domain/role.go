package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// SystemRoleAdmin is the single protected system role. It is seeded at
// startup, cannot be created through the generic factory, cannot be renamed
// to or from, and cannot be deleted.
// SystemRoleAdmin — единственная защищённая системная роль. Создаётся при
// запуске, не может быть создана через общую фабрику, переименована в неё
// или из неё, а также удалена.
const SystemRoleAdmin = "admin"

// DefaultRoleMember is assigned at registration so the "roles never empty"
// invariant holds from the first save.
// DefaultRoleMember назначается при регистрации, чтобы инвариант «список
// ролей никогда не пуст» выполнялся с первого сохранения.
const DefaultRoleMember = "member"

// roleNameRegex: lowercase identifier, 2-50 characters, starts with a letter.
// roleNameRegex: идентификатор в нижнем регистре, 2-50 символов, начинается с буквы.
var roleNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,49}$`)

// ValidateRoleName checks a role name against the naming rules.
// ValidateRoleName проверяет имя роли на соответствие правилам именования.
func ValidateRoleName(name string) error {
	if !roleNameRegex.MatchString(name) {
		return ErrInvalidRoleName
	}
	return nil
}

// Role is a named bundle of permissions. System roles are protected from
// rename and deletion; everything else about them behaves like a regular role.
// Role — именованный набор разрешений. Системные роли защищены от
// переименования и удаления; во всём остальном ведут себя как обычные роли.
type Role struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`                          // Role identifier / Идентификатор роли
	Name        string       `json:"name" gorm:"size:50;not null;uniqueIndex"`                // Unique lowercase name / Уникальное имя в нижнем регистре
	Description string       `json:"description" gorm:"size:255"`                             // Human-readable purpose / Человекочитаемое назначение
	IsSystem    bool         `json:"is_system" gorm:"not null;default:false"`                 // Protected system role flag / Флаг защищённой системной роли
	Permissions []Permission `json:"permissions" gorm:"many2many:role_permissions"`           // Attached permissions / Прикреплённые разрешения
	CreatedAt   time.Time    `json:"created_at"`                                              // Creation timestamp / Время создания
	UpdatedAt   time.Time    `json:"updated_at"`                                              // Last update timestamp / Время последнего обновления
}

// NewRole creates a regular (non-system) role. Creating the protected system
// role through this factory is rejected; it is seeded explicitly instead.
// NewRole создаёт обычную (не системную) роль. Создание защищённой системной
// роли через эту фабрику отклоняется; она засеивается явно.
func NewRole(name, description string) (*Role, error) {
	if err := ValidateRoleName(name); err != nil {
		return nil, err
	}
	if name == SystemRoleAdmin {
		return nil, ErrReservedRoleName
	}

	now := time.Now()
	return &Role{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Permissions: []Permission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Rename changes the role name. System roles reject renames entirely, and no
// role may be renamed to the protected system role name.
// Rename меняет имя роли. Системные роли полностью отклоняют переименование,
// и ни одна роль не может быть переименована в имя защищённой системной роли.
func (r *Role) Rename(name string) error {
	if r.IsSystem {
		return ErrSystemRoleImmutable
	}
	if err := ValidateRoleName(name); err != nil {
		return err
	}
	if name == SystemRoleAdmin {
		return ErrReservedRoleName
	}

	r.Name = name
	r.UpdatedAt = time.Now()
	return nil
}

// UpdateDescription changes the description. Allowed on system roles too:
// only the name is protected.
// UpdateDescription меняет описание. Разрешено и для системных ролей:
// защищено только имя.
func (r *Role) UpdateDescription(description string) {
	r.Description = description
	r.UpdatedAt = time.Now()
}

// HasPermission reports whether the role holds an equal-valued permission.
// HasPermission сообщает, содержит ли роль разрешение с таким же значением.
func (r *Role) HasPermission(p Permission) bool {
	return containsPermission(r.Permissions, p)
}

// AddPermission attaches a permission, rejecting duplicates.
// AddPermission прикрепляет разрешение, отклоняя дубликаты.
func (r *Role) AddPermission(p Permission) error {
	if r.HasPermission(p) {
		return ErrRoleHasPermission
	}

	r.Permissions = append(r.Permissions, p)
	r.UpdatedAt = time.Now()
	return nil
}

// RemovePermission detaches a permission, rejecting absences.
// RemovePermission открепляет разрешение, отклоняя отсутствующие.
func (r *Role) RemovePermission(p Permission) error {
	for i, held := range r.Permissions {
		if held.Resource == p.Resource && held.Action == p.Action {
			r.Permissions = append(r.Permissions[:i], r.Permissions[i+1:]...)
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrRoleLacksPermission
}

// SetPermissions replaces the whole permission set in one operation.
// SetPermissions заменяет весь набор разрешений за одну операцию.
func (r *Role) SetPermissions(perms []Permission) {
	deduped := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if !containsPermission(deduped, p) {
			deduped = append(deduped, p)
		}
	}

	r.Permissions = deduped
	r.UpdatedAt = time.Now()
}

// CanDelete reports whether the role may be deleted. System roles may not.
// CanDelete сообщает, может ли роль быть удалена. Системные роли — нет.
func (r *Role) CanDelete() bool {
	return !r.IsSystem
}
