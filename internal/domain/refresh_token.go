package domain

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// refreshTokenBytes is the entropy of a refresh token: 256 bits, rendered as
// 64 hex characters. The hex string is both the primary key and the
// credential, so it must never appear in logs.
// refreshTokenBytes — энтропия refresh-токена: 256 бит, представленных как
// 64 hex-символа. Hex-строка одновременно первичный ключ и учётные данные,
// поэтому она никогда не должна попадать в логи.
const refreshTokenBytes = 32

// RefreshToken is a single-use rotating credential. Lifecycle:
// Active -> Revoked(replaced by successor) on rotation,
// Active -> Revoked(no successor) on logout; Expired is derived from the clock.
// RefreshToken — одноразовые ротируемые учётные данные. Жизненный цикл:
// Active -> Revoked(с преемником) при ротации,
// Active -> Revoked(без преемника) при выходе; Expired выводится из часов.
type RefreshToken struct {
	Token           string     `json:"-" gorm:"size:64;primaryKey"`              // Opaque credential, never logged / Непрозрачные учётные данные, не логируются
	UserID          uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`  // Owning user / Пользователь-владелец
	ExpiresAt       time.Time  `json:"expires_at" gorm:"not null"`               // Hard expiry / Жёсткий срок действия
	CreatedAt       time.Time  `json:"created_at"`                               // Issue timestamp / Время выдачи
	RevokedAt       *time.Time `json:"revoked_at,omitempty" gorm:"index"`        // Revocation timestamp, nil while active / Время отзыва, nil пока активен
	ReplacedByToken *string    `json:"-" gorm:"size:64"`                         // Successor token on rotation / Токен-преемник при ротации
	UserAgent       string     `json:"user_agent" gorm:"size:512"`               // Client user agent / User agent клиента
	IPAddress       string     `json:"ip_address" gorm:"size:64"`                // Client IP / IP клиента
}

// NewRefreshToken mints a fresh token for the user from crypto/rand.
// NewRefreshToken выпускает новый токен для пользователя из crypto/rand.
func NewRefreshToken(userID uuid.UUID, ttl time.Duration, userAgent, ipAddress string) (*RefreshToken, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now()
	return &RefreshToken{
		Token:     fmt.Sprintf("%x", raw),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}, nil
}

// IsRevoked reports whether the token has been revoked.
// IsRevoked сообщает, был ли токен отозван.
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the token is past its expiry.
// IsExpired сообщает, истёк ли срок действия токена.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsActive reports whether the token can still be exchanged.
// IsActive сообщает, можно ли ещё обменять токен.
func (t *RefreshToken) IsActive() bool {
	return !t.IsRevoked() && !t.IsExpired()
}

// Revoke marks the token revoked, optionally linking its successor. A second
// revocation is rejected; persistence additionally enforces this with a
// compare-and-set update so concurrent rotations cannot both succeed.
// Revoke помечает токен отозванным, опционально связывая преемника.
// Повторный отзыв отклоняется; хранилище дополнительно обеспечивает это
// compare-and-set обновлением, чтобы конкурентные ротации не прошли обе.
func (t *RefreshToken) Revoke(replacedBy *string) error {
	if t.IsRevoked() {
		return ErrTokenAlreadyRevoked
	}

	now := time.Now()
	t.RevokedAt = &now
	t.ReplacedByToken = replacedBy
	return nil
}
