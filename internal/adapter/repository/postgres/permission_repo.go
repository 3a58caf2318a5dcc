package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
)

// PermissionRepository implements port.PermissionRepository using PostgreSQL.
// It stores the permission catalog and the individual user grant rows.
// PermissionRepository реализует интерфейс port.PermissionRepository с
// использованием PostgreSQL. Хранит каталог разрешений и строки
// индивидуальных выдач пользователям.
type PermissionRepository struct {
	db *gorm.DB // Database connection / Подключение к базе данных
}

// NewPermissionRepository creates a new PermissionRepository instance.
// NewPermissionRepository создаёт новый экземпляр PermissionRepository.
func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Create registers a new catalog entry.
// Create регистрирует новую запись каталога.
func (r *PermissionRepository) Create(ctx context.Context, permission *domain.Permission) error {
	if err := r.db.WithContext(ctx).Create(permission).Error; err != nil {
		if isDuplicateKeyError(err) {
			return apperror.Conflict("permission", "name", permission.Name())
		}
		return apperror.Internal("failed to create permission", err)
	}
	return nil
}

// FindByID retrieves a permission by its identifier.
// FindByID получает разрешение по идентификатору.
func (r *PermissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Permission, error) {
	var permission domain.Permission
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&permission).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("permission", id)
		}
		return nil, apperror.Internal("failed to find permission", err)
	}
	return &permission, nil
}

// FindByName looks up a catalog entry by its canonical "resource:action" form.
// FindByName ищет запись каталога по канонической форме "resource:action".
func (r *PermissionRepository) FindByName(ctx context.Context, name string) (*domain.Permission, error) {
	resource, action, ok := strings.Cut(name, ":")
	if !ok {
		return nil, apperror.NotFound("permission", name)
	}

	var permission domain.Permission
	err := r.db.WithContext(ctx).
		Where("resource = ? AND action = ?", resource, action).
		First(&permission).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("permission", name)
		}
		return nil, apperror.Internal("failed to find permission", err)
	}
	return &permission, nil
}

// FindAll retrieves the whole catalog ordered by resource then action.
// FindAll получает весь каталог, отсортированный по ресурсу, затем действию.
func (r *PermissionRepository) FindAll(ctx context.Context) ([]domain.Permission, error) {
	var permissions []domain.Permission
	err := r.db.WithContext(ctx).
		Order("resource ASC, action ASC").
		Find(&permissions).Error

	if err != nil {
		return nil, apperror.Internal("failed to list permissions", err)
	}
	return permissions, nil
}

// Delete removes a catalog entry together with its role and user join rows.
// Delete удаляет запись каталога вместе со строками соединения с ролями
// и пользователями.
func (r *PermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return apperror.Internal("failed to detach permission from roles", err)
		}
		if err := tx.Exec("DELETE FROM user_permissions WHERE permission_id = ?", id).Error; err != nil {
			return apperror.Internal("failed to detach permission from users", err)
		}

		result := tx.Delete(&domain.Permission{}, "id = ?", id)
		if result.Error != nil {
			return apperror.Internal("failed to delete permission", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("permission", id)
		}
		return nil
	})
}

// FindByUserID returns the user's individual grants only.
// FindByUserID возвращает только индивидуальные выдачи пользователя.
func (r *PermissionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Permission, error) {
	var permissions []domain.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Find(&permissions).Error

	if err != nil {
		return nil, apperror.Internal("failed to find permissions by user", err)
	}
	return permissions, nil
}

// AssignToUser adds an individual grant row. Repeated grants are no-ops.
// AssignToUser добавляет строку индивидуальной выдачи. Повторные выдачи — no-op.
func (r *PermissionRepository) AssignToUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO user_permissions (user_id, permission_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			userID, permissionID).Error
	if err != nil {
		return apperror.Internal("failed to grant permission to user", err)
	}
	return nil
}

// RemoveFromUser removes an individual grant row.
// RemoveFromUser удаляет строку индивидуальной выдачи.
func (r *PermissionRepository) RemoveFromUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM user_permissions WHERE user_id = ? AND permission_id = ?",
			userID, permissionID).Error
	if err != nil {
		return apperror.Internal("failed to revoke permission from user", err)
	}
	return nil
}

// UserHasPermission checks an individual grant by exact identity.
// UserHasPermission проверяет индивидуальную выдачу по точному совпадению.
func (r *PermissionRepository) UserHasPermission(ctx context.Context, userID, permissionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("user_permissions").
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Count(&count).Error

	if err != nil {
		return false, apperror.Internal("failed to check user permission", err)
	}
	return count > 0, nil
}
