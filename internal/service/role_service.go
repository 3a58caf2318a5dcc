package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// RoleService implements port.RoleService: role CRUD and permission
// attachment. Every mutation that changes a role's permission set
// invalidates the cached effective permissions of every member of the role.
// RoleService реализует port.RoleService: CRUD ролей и прикрепление
// разрешений. Каждая мутация, меняющая набор разрешений роли, инвалидирует
// кэшированные эффективные разрешения каждого обладателя роли.
type RoleService struct {
	roleRepo port.RoleRepository
	permRepo port.PermissionRepository
	access   port.AccessService
	logger   *logger.Logger
}

// NewRoleService creates a new RoleService instance.
// NewRoleService создаёт новый экземпляр RoleService.
func NewRoleService(
	roleRepo port.RoleRepository,
	permRepo port.PermissionRepository,
	access port.AccessService,
	log *logger.Logger,
) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		permRepo: permRepo,
		access:   access,
		logger:   log.WithComponent("role_service"),
	}
}

// mapRoleError translates domain rule violations into transport errors.
// mapRoleError транслирует нарушения доменных правил в транспортные ошибки.
func mapRoleError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRoleName):
		return apperror.ValidationError(err.Error(), nil)
	case errors.Is(err, domain.ErrReservedRoleName),
		errors.Is(err, domain.ErrSystemRoleImmutable),
		errors.Is(err, domain.ErrRoleHasPermission),
		errors.Is(err, domain.ErrRoleLacksPermission):
		return apperror.New(apperror.CodeConflict, err.Error(), http.StatusConflict)
	default:
		return err
	}
}

// CreateRole creates a regular role, optionally with an initial permission set.
// CreateRole создаёт обычную роль, опционально с начальным набором разрешений.
func (s *RoleService) CreateRole(ctx context.Context, req domain.CreateRoleRequest, actorID uuid.UUID) (*domain.Role, error) {
	log := s.logger.WithContext(ctx)

	if existing, err := s.roleRepo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return nil, apperror.Conflict("role", "name", req.Name)
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}

	role, err := domain.NewRole(req.Name, req.Description)
	if err != nil {
		return nil, mapRoleError(err)
	}

	for _, name := range req.Permissions {
		perm, err := s.lookupPermission(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := role.AddPermission(*perm); err != nil {
			return nil, mapRoleError(err)
		}
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	log.Info("role created", "role", role.Name, "actor_id", actorID.String())
	return role, nil
}

// GetRole loads a role with its permissions.
// GetRole загружает роль с её разрешениями.
func (s *RoleService) GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	return s.roleRepo.FindByID(ctx, id)
}

// ListRoles returns all roles.
// ListRoles возвращает все роли.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roleRepo.FindAll(ctx)
}

// UpdateRole renames a role and/or updates its description. Renames follow
// the domain rules: system roles reject them, and the protected system role
// name is never a valid target. Updating only the description is allowed on
// system roles.
// UpdateRole переименовывает роль и/или обновляет её описание.
// Переименования следуют доменным правилам: системные роли их отклоняют, а
// имя защищённой системной роли никогда не является допустимой целью.
// Обновление только описания разрешено и для системных ролей.
func (s *RoleService) UpdateRole(ctx context.Context, id uuid.UUID, req domain.UpdateRoleRequest, actorID uuid.UUID) (*domain.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != role.Name {
		if existing, err := s.roleRepo.FindByName(ctx, *req.Name); err == nil && existing != nil {
			return nil, apperror.Conflict("role", "name", *req.Name)
		} else if err != nil && !isNotFound(err) {
			return nil, err
		}

		if err := role.Rename(*req.Name); err != nil {
			return nil, mapRoleError(err)
		}
	}
	if req.Description != nil {
		role.UpdateDescription(*req.Description)
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("role updated", "role", role.Name, "actor_id", actorID.String())
	return role, nil
}

// DeleteRole deletes a role. System roles cannot be deleted.
// DeleteRole удаляет роль. Системные роли удалить нельзя.
func (s *RoleService) DeleteRole(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !role.CanDelete() {
		return mapRoleError(domain.ErrSystemRoleImmutable)
	}

	// Members lose the role's permissions; invalidate before the row goes.
	// Обладатели теряют разрешения роли; инвалидируем до удаления записи.
	memberIDs, err := s.roleRepo.FindUserIDsByRoleID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateMembers(ctx, memberIDs)
	s.logger.WithContext(ctx).Info("role deleted", "role", role.Name, "actor_id", actorID.String())
	return nil
}

// AddPermissionToRole attaches a catalog permission to a role.
// AddPermissionToRole прикрепляет разрешение из каталога к роли.
func (s *RoleService) AddPermissionToRole(ctx context.Context, roleID uuid.UUID, permission string, actorID uuid.UUID) (*domain.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perm, err := s.lookupPermission(ctx, permission)
	if err != nil {
		return nil, err
	}

	if err := role.AddPermission(*perm); err != nil {
		return nil, mapRoleError(err)
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.invalidateRoleMembers(ctx, roleID)
	s.logger.WithContext(ctx).Info("permission added to role",
		"role", role.Name, "permission", perm.Name(), "actor_id", actorID.String())
	return role, nil
}

// RemovePermissionFromRole detaches a permission from a role.
// RemovePermissionFromRole открепляет разрешение от роли.
func (s *RoleService) RemovePermissionFromRole(ctx context.Context, roleID uuid.UUID, permission string, actorID uuid.UUID) (*domain.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	parsed, err := domain.ParsePermission(permission)
	if err != nil {
		return nil, apperror.ValidationError(err.Error(), nil)
	}

	if err := role.RemovePermission(parsed); err != nil {
		return nil, mapRoleError(err)
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.invalidateRoleMembers(ctx, roleID)
	s.logger.WithContext(ctx).Info("permission removed from role",
		"role", role.Name, "permission", permission, "actor_id", actorID.String())
	return role, nil
}

// SetRolePermissions bulk-replaces a role's permission set.
// SetRolePermissions полностью заменяет набор разрешений роли.
func (s *RoleService) SetRolePermissions(ctx context.Context, roleID uuid.UUID, permissions []string, actorID uuid.UUID) (*domain.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	perms := make([]domain.Permission, 0, len(permissions))
	for _, name := range permissions {
		perm, err := s.lookupPermission(ctx, name)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *perm)
	}

	role.SetPermissions(perms)

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, err
	}

	s.invalidateRoleMembers(ctx, roleID)
	s.logger.WithContext(ctx).Info("role permissions replaced",
		"role", role.Name, "count", len(role.Permissions), "actor_id", actorID.String())
	return role, nil
}

// lookupPermission validates the name and resolves it in the catalog.
// lookupPermission валидирует имя и находит его в каталоге.
func (s *RoleService) lookupPermission(ctx context.Context, name string) (*domain.Permission, error) {
	if _, err := domain.ParsePermission(name); err != nil {
		return nil, apperror.ValidationError(err.Error(), map[string]interface{}{"permission": name})
	}
	return s.permRepo.FindByName(ctx, name)
}

// invalidateRoleMembers drops cached permission sets for all role members.
// invalidateRoleMembers сбрасывает кэшированные наборы разрешений всех обладателей роли.
func (s *RoleService) invalidateRoleMembers(ctx context.Context, roleID uuid.UUID) {
	memberIDs, err := s.roleRepo.FindUserIDsByRoleID(ctx, roleID)
	if err != nil {
		s.logger.WithContext(ctx).Error("failed to list role members for cache invalidation",
			"role_id", roleID.String(), "error", err)
		return
	}
	s.invalidateMembers(ctx, memberIDs)
}

func (s *RoleService) invalidateMembers(ctx context.Context, memberIDs []uuid.UUID) {
	log := s.logger.WithContext(ctx)
	for _, userID := range memberIDs {
		if err := s.access.InvalidateUserPermissions(ctx, userID); err != nil {
			log.Error("failed to invalidate user permissions",
				"user_id", userID.String(), "error", err)
		}
	}
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.RoleService = (*RoleService)(nil)
