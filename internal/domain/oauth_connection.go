package domain

import (
	"time"

	"github.com/google/uuid"
)

// OAuthConnection links a user to an external identity provider account.
// The unlink invariant (a user keeps at least one authentication method) is
// enforced by the user service, which sees both the password state and the
// remaining connections.
// OAuthConnection связывает пользователя с учётной записью внешнего
// провайдера. Инвариант отвязки (у пользователя остаётся минимум один способ
// аутентификации) обеспечивает сервис пользователей, которому видны и
// состояние пароля, и оставшиеся связи.
type OAuthConnection struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`                                                      // Connection identifier / Идентификатор связи
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`                                             // Owning user / Пользователь-владелец
	Provider       string    `json:"provider" gorm:"size:50;not null;uniqueIndex:idx_oauth_provider_subject,priority:1"`  // Provider name, e.g. "google" / Имя провайдера, например "google"
	ProviderUserID string    `json:"provider_user_id" gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_subject,priority:2"` // Subject at the provider / Идентификатор у провайдера
	Email          string    `json:"email" gorm:"size:255"`                                                               // Email reported by the provider / Email от провайдера
	CreatedAt      time.Time `json:"created_at"`                                                                          // Link timestamp / Время привязки
}

// NewOAuthConnection links an external identity to a user.
// NewOAuthConnection привязывает внешнюю учётную запись к пользователю.
func NewOAuthConnection(userID uuid.UUID, provider, providerUserID, email string) *OAuthConnection {
	return &OAuthConnection{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       provider,
		ProviderUserID: providerUserID,
		Email:          email,
		CreatedAt:      time.Now(),
	}
}
