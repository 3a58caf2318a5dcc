// Package domain contains the core entities and business rules of the access service.
// Пакет domain содержит основные сущности и бизнес-правила сервиса доступа.
package domain

import "errors"

// Domain rule violations. Services translate these into transport-level
// errors; the domain layer itself never panics on a rule violation.
// Нарушения доменных правил. Сервисы транслируют их в ошибки транспортного
// уровня; сам доменный слой никогда не паникует при нарушении правила.
var (
	// ErrInvalidPermissionFormat indicates a malformed permission string.
	// ErrInvalidPermissionFormat указывает на некорректную строку разрешения.
	ErrInvalidPermissionFormat = errors.New("permission must be lowercase resource:action")

	// ErrInvalidRoleName indicates a role name outside the allowed pattern.
	// ErrInvalidRoleName указывает на имя роли вне допустимого шаблона.
	ErrInvalidRoleName = errors.New("role name must be 2-50 lowercase identifier characters")

	// ErrReservedRoleName indicates an attempt to create or rename into a protected role.
	// ErrReservedRoleName указывает на попытку создать или переименовать в защищённую роль.
	ErrReservedRoleName = errors.New("role name is reserved for a system role")

	// ErrSystemRoleImmutable indicates a mutation forbidden on system roles.
	// ErrSystemRoleImmutable указывает на мутацию, запрещённую для системных ролей.
	ErrSystemRoleImmutable = errors.New("system roles cannot be renamed or deleted")

	// ErrRoleHasPermission indicates a duplicate permission attach on a role.
	// ErrRoleHasPermission указывает на повторное добавление разрешения к роли.
	ErrRoleHasPermission = errors.New("role already has this permission")

	// ErrRoleLacksPermission indicates a detach of a permission the role does not hold.
	// ErrRoleLacksPermission указывает на удаление разрешения, которого у роли нет.
	ErrRoleLacksPermission = errors.New("role does not have this permission")

	// ErrAlreadyHasRole indicates a duplicate role assignment.
	// ErrAlreadyHasRole указывает на повторное назначение роли.
	ErrAlreadyHasRole = errors.New("user already has this role")

	// ErrDoesNotHaveRole indicates a removal of a role the user does not hold.
	// ErrDoesNotHaveRole указывает на снятие роли, которой у пользователя нет.
	ErrDoesNotHaveRole = errors.New("user does not have this role")

	// ErrCannotRemoveLastRole guards the "roles never empty" invariant.
	// ErrCannotRemoveLastRole защищает инвариант "список ролей никогда не пуст".
	ErrCannotRemoveLastRole = errors.New("cannot remove the last role from a user")

	// ErrPermissionAlreadyGranted indicates a duplicate individual grant.
	// ErrPermissionAlreadyGranted указывает на повторную индивидуальную выдачу.
	ErrPermissionAlreadyGranted = errors.New("user already has this individual permission")

	// ErrPermissionNotGranted indicates a revoke of a grant the user does not hold.
	// ErrPermissionNotGranted указывает на отзыв выдачи, которой у пользователя нет.
	ErrPermissionNotGranted = errors.New("user does not have this individual permission")

	// ErrTokenAlreadyRevoked indicates a second revocation of a refresh token.
	// ErrTokenAlreadyRevoked указывает на повторный отзыв refresh-токена.
	ErrTokenAlreadyRevoked = errors.New("refresh token is already revoked")

	// ErrLastAuthMethod guards the "at least one authentication method" invariant.
	// ErrLastAuthMethod защищает инвариант "минимум один способ аутентификации".
	ErrLastAuthMethod = errors.New("cannot remove the last authentication method")
)
