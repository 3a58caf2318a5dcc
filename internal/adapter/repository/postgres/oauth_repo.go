package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
)

// OAuthConnectionRepository implements port.OAuthConnectionRepository using PostgreSQL.
// OAuthConnectionRepository реализует интерфейс port.OAuthConnectionRepository
// с использованием PostgreSQL.
type OAuthConnectionRepository struct {
	db *gorm.DB // Database connection / Подключение к базе данных
}

// NewOAuthConnectionRepository creates a new OAuthConnectionRepository instance.
// NewOAuthConnectionRepository создаёт новый экземпляр OAuthConnectionRepository.
func NewOAuthConnectionRepository(db *gorm.DB) *OAuthConnectionRepository {
	return &OAuthConnectionRepository{db: db}
}

// Create persists a new external identity link.
// Create сохраняет новую связь с внешней учётной записью.
func (r *OAuthConnectionRepository) Create(ctx context.Context, conn *domain.OAuthConnection) error {
	if err := r.db.WithContext(ctx).Create(conn).Error; err != nil {
		if isDuplicateKeyError(err) {
			return apperror.Conflict("oauth_connection", "provider_user_id", conn.ProviderUserID)
		}
		return apperror.Internal("failed to create oauth connection", err)
	}
	return nil
}

// FindByUserID returns all external identity links of a user.
// FindByUserID возвращает все связи пользователя с внешними учётными записями.
func (r *OAuthConnectionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]domain.OAuthConnection, error) {
	var connections []domain.OAuthConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&connections).Error

	if err != nil {
		return nil, apperror.Internal("failed to find oauth connections", err)
	}
	return connections, nil
}

// FindByProviderSubject looks up a link by provider and external subject.
// FindByProviderSubject ищет связь по провайдеру и внешнему идентификатору.
func (r *OAuthConnectionRepository) FindByProviderSubject(ctx context.Context, provider, providerUserID string) (*domain.OAuthConnection, error) {
	var conn domain.OAuthConnection
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&conn).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("oauth_connection", providerUserID)
		}
		return nil, apperror.Internal("failed to find oauth connection", err)
	}
	return &conn, nil
}

// CountByUserID counts the user's external identity links.
// CountByUserID подсчитывает связи пользователя с внешними учётными записями.
func (r *OAuthConnectionRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OAuthConnection{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	if err != nil {
		return 0, apperror.Internal("failed to count oauth connections", err)
	}
	return count, nil
}

// Delete removes an external identity link.
// Delete удаляет связь с внешней учётной записью.
func (r *OAuthConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.OAuthConnection{}, "id = ?", id)
	if result.Error != nil {
		return apperror.Internal("failed to delete oauth connection", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("oauth_connection", id)
	}
	return nil
}
