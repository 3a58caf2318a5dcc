package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
)

// RefreshTokenRepository implements port.RefreshTokenRepository using PostgreSQL.
// RefreshTokenRepository реализует интерфейс port.RefreshTokenRepository с
// использованием PostgreSQL.
//
// The token value is the primary key and the credential. Error messages and
// log fields never carry it.
// Значение токена — первичный ключ и учётные данные. Сообщения об ошибках и
// поля логов никогда его не содержат.
type RefreshTokenRepository struct {
	db *gorm.DB // Database connection / Подключение к базе данных
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository instance.
// NewRefreshTokenRepository создаёт новый экземпляр RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists a new refresh token.
// Create сохраняет новый refresh-токен.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.CreateTx(ctx, r.db, token)
}

// CreateTx persists a new refresh token within an existing transaction.
// CreateTx сохраняет новый refresh-токен в рамках существующей транзакции.
func (r *RefreshTokenRepository) CreateTx(ctx context.Context, tx *gorm.DB, token *domain.RefreshToken) error {
	if err := tx.WithContext(ctx).Create(token).Error; err != nil {
		return apperror.Internal("failed to create refresh token", err)
	}
	return nil
}

// FindByToken looks up a token by its opaque value.
// FindByToken ищет токен по его непрозрачному значению.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&rt).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("refresh_token", "presented value")
		}
		return nil, apperror.Internal("failed to find refresh token", err)
	}
	return &rt, nil
}

// Revoke marks a token revoked if and only if it is still active
// (compare-and-set on revoked_at IS NULL). Returns the number of rows
// updated: zero means a concurrent revocation won the race.
// Revoke помечает токен отозванным, только если он ещё активен
// (compare-and-set по revoked_at IS NULL). Возвращает число обновлённых
// строк: ноль означает, что гонку выиграл конкурентный отзыв.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string, replacedBy *string) (int64, error) {
	return r.RevokeTx(ctx, r.db, token, replacedBy)
}

// RevokeTx is Revoke within an existing transaction.
// RevokeTx — Revoke в рамках существующей транзакции.
func (r *RefreshTokenRepository) RevokeTx(ctx context.Context, tx *gorm.DB, token string, replacedBy *string) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Updates(map[string]interface{}{
			"revoked_at":        time.Now(),
			"replaced_by_token": replacedBy,
		})

	if result.Error != nil {
		return 0, apperror.Internal("failed to revoke refresh token", result.Error)
	}
	return result.RowsAffected, nil
}

// RevokeAllForUser revokes every active token of the user.
// RevokeAllForUser отзывает все активные токены пользователя.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.RevokeAllForUserTx(ctx, r.db, userID)
}

// RevokeAllForUserTx is RevokeAllForUser within an existing transaction.
// RevokeAllForUserTx — RevokeAllForUser в рамках существующей транзакции.
func (r *RefreshTokenRepository) RevokeAllForUserTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := tx.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error

	if err != nil {
		return apperror.Internal("failed to revoke user refresh tokens", err)
	}
	return nil
}

// DeleteExpired removes tokens expired before the cutoff. Housekeeping.
// DeleteExpired удаляет токены, истёкшие до отсечки. Уборка.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&domain.RefreshToken{})

	if result.Error != nil {
		return 0, apperror.Internal("failed to delete expired refresh tokens", result.Error)
	}
	return result.RowsAffected, nil
}
