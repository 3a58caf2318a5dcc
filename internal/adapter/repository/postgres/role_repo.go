package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
)

// RoleRepository implements port.RoleRepository using PostgreSQL.
// RoleRepository реализует интерфейс port.RoleRepository с использованием PostgreSQL.
type RoleRepository struct {
	db *gorm.DB // Database connection / Подключение к базе данных
}

// NewRoleRepository creates a new RoleRepository instance.
// NewRoleRepository создаёт новый экземпляр RoleRepository.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create creates a new role with its permission associations.
// Create создаёт новую роль со связями разрешений.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	err := r.db.WithContext(ctx).
		Omit("Permissions.*").
		Create(role).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperror.Conflict("role", "name", role.Name)
		}
		return apperror.Internal("failed to create role", err)
	}
	return nil
}

// FindByID retrieves a role with its permissions preloaded.
// FindByID получает роль с подгруженными разрешениями.
func (r *RoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("id = ?", id).
		First(&role).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("role", id)
		}
		return nil, apperror.Internal("failed to find role", err)
	}
	return &role, nil
}

// FindByName retrieves a role by its unique name.
// FindByName получает роль по её уникальному имени.
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("name = ?", name).
		First(&role).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("role", name)
		}
		return nil, apperror.Internal("failed to find role", err)
	}
	return &role, nil
}

// FindAll retrieves all roles ordered by name.
// FindAll получает все роли, отсортированные по имени.
func (r *RoleRepository) FindAll(ctx context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("name ASC").
		Find(&roles).Error

	if err != nil {
		return nil, apperror.Internal("failed to list roles", err)
	}
	return roles, nil
}

// Update saves the role and replaces its permission associations.
// Update сохраняет роль и заменяет её связи с разрешениями.
func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(role)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return apperror.Conflict("role", "name", role.Name)
		}
		return apperror.Internal("failed to update role", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("role", role.ID)
	}

	err := r.db.WithContext(ctx).
		Model(role).
		Omit("Permissions.*").
		Association("Permissions").
		Replace(role.Permissions)
	if err != nil {
		return apperror.Internal("failed to update role permissions", err)
	}
	return nil
}

// Delete removes a role together with its join rows.
// Delete удаляет роль вместе со строками соединительных таблиц.
func (r *RoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&domain.Role{ID: id})
	if result.Error != nil {
		return apperror.Internal("failed to delete role", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("role", id)
	}
	return nil
}

// FindByUserID returns the user's roles with permissions preloaded.
// FindByUserID возвращает роли пользователя с загруженными разрешениями.
func (r *RoleRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error

	if err != nil {
		return nil, apperror.Internal("failed to find roles by user", err)
	}
	return roles, nil
}

// FindPermissionsByRoleID returns the permissions attached to a role.
// FindPermissionsByRoleID возвращает разрешения, прикреплённые к роли.
func (r *RoleRepository) FindPermissionsByRoleID(ctx context.Context, roleID uuid.UUID) ([]domain.Permission, error) {
	var permissions []domain.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Find(&permissions).Error

	if err != nil {
		return nil, apperror.Internal("failed to find permissions by role", err)
	}
	return permissions, nil
}

// FindUserIDsByRoleID returns the IDs of users holding the role.
// FindUserIDsByRoleID возвращает ID пользователей с данной ролью.
func (r *RoleRepository) FindUserIDsByRoleID(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Where("role_id = ?", roleID).
		Pluck("user_id", &userIDs).Error

	if err != nil {
		return nil, apperror.Internal("failed to find users by role", err)
	}
	return userIDs, nil
}
