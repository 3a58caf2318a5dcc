// Package postgres provides PostgreSQL-based repository implementations.
// Пакет postgres предоставляет реализации репозиториев на базе PostgreSQL.
//
// This package implements all repository interfaces defined in port package
// using GORM as the ORM layer.
// Этот пакет реализует все интерфейсы репозиториев, определённые в пакете port,
// используя GORM в качестве ORM слоя.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
)

// UserRepository implements port.UserRepository using PostgreSQL.
// UserRepository реализует интерфейс port.UserRepository с использованием PostgreSQL.
//
// Users are aggregates: loads preload the role and permission associations,
// saves replace the role association to match the aggregate state.
// Пользователи — агрегаты: при загрузке подгружаются связи ролей и разрешений,
// при сохранении связь ролей заменяется в соответствии с состоянием агрегата.
type UserRepository struct {
	db *gorm.DB // Database connection / Подключение к базе данных
}

// NewUserRepository creates a new UserRepository instance.
// NewUserRepository создаёт новый экземпляр UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user in the database.
// Create создаёт нового пользователя в базе данных.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.CreateTx(ctx, r.db, user)
}

// CreateTx creates a new user within an existing transaction.
// CreateTx создаёт нового пользователя в рамках существующей транзакции.
// Role associations are inserted as join rows, the roles themselves are not touched.
// Связи ролей вставляются как строки соединительной таблицы, сами роли не изменяются.
func (r *UserRepository) CreateTx(ctx context.Context, tx *gorm.DB, user *domain.User) error {
	err := tx.WithContext(ctx).
		Omit("Roles.*", "Permissions.*").
		Create(user).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperror.Conflict("user", "email", user.Email)
		}
		return apperror.Internal("failed to create user", err)
	}
	return nil
}

// FindByID retrieves a user with roles (including role permissions) and
// individual permissions preloaded.
// FindByID получает пользователя с ролями (включая разрешения ролей)
// и индивидуальными разрешениями.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Permissions").
		Where("id = ?", id).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, apperror.Internal("failed to find user", err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by their email address, associations preloaded.
// FindByEmail получает пользователя по адресу электронной почты со связями.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Permissions").
		Where("email = ?", email).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, apperror.Internal("failed to find user", err)
	}
	return &user, nil
}

// Update saves the aggregate, replacing its role associations.
// Update сохраняет агрегат, заменяя его связи ролей.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.UpdateTx(ctx, r.db, user)
}

// UpdateTx saves the aggregate within an existing transaction.
// The role join rows are replaced to match the aggregate; individual
// permission rows are managed by PermissionRepository.
// UpdateTx сохраняет агрегат в рамках существующей транзакции.
// Строки соединения ролей заменяются в соответствии с агрегатом;
// строками индивидуальных разрешений управляет PermissionRepository.
func (r *UserRepository) UpdateTx(ctx context.Context, tx *gorm.DB, user *domain.User) error {
	result := tx.WithContext(ctx).
		Omit(clause.Associations).
		Save(user)
	if result.Error != nil {
		return apperror.Internal("failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	err := tx.WithContext(ctx).
		Model(user).
		Omit("Roles.*").
		Association("Roles").
		Replace(user.Roles)
	if err != nil {
		return apperror.Internal("failed to update user roles", err)
	}
	return nil
}

// ExistsByEmail checks if a user with the given email already exists.
// ExistsByEmail проверяет, существует ли уже пользователь с данным email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("email = ?", email).
		Count(&count).Error

	if err != nil {
		return false, apperror.Internal("failed to check email existence", err)
	}
	return count > 0, nil
}

// HardDelete permanently removes a user from the database.
// HardDelete физически удаляет пользователя из базы данных.
// Used for compensating transactions when a multi-step registration fails.
// Используется для компенсирующих транзакций при сбое многошаговой регистрации.
func (r *UserRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&domain.User{ID: id})
	if result.Error != nil {
		return apperror.Internal("failed to hard delete user", result.Error)
	}
	return nil
}

// isDuplicateKeyError checks if the error is a PostgreSQL duplicate key violation.
// isDuplicateKeyError проверяет, является ли ошибка нарушением уникального ключа PostgreSQL.
// PostgreSQL error code 23505 indicates unique_violation.
// Код ошибки PostgreSQL 23505 указывает на unique_violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errMsg := err.Error()
	return errMsg != "" && (strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "23505"))
}
