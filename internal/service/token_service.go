// Package service contains the business logic layer of the application.
// Пакет service содержит слой бизнес-логики приложения.
package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/port"
)

// accessClaims is the wire shape of an access token payload:
// {userId, email, roles, iat, exp} with Unix-second timestamps.
// accessClaims — форма полезной нагрузки access-токена на проводе:
// {userId, email, roles, iat, exp} с отметками времени в Unix-секундах.
type accessClaims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256-signed access tokens. The secret is
// fixed at construction; the service holds no mutable state and is safe for
// concurrent use. Signature comparison inside the HMAC verifier is
// constant-time, so token validation leaks no timing information.
// TokenService выпускает и проверяет access-токены с подписью HS256. Секрет
// фиксируется при создании; сервис не содержит изменяемого состояния и
// безопасен для конкурентного использования. Сравнение подписи внутри
// HMAC-верификатора выполняется за постоянное время, поэтому проверка токена
// не раскрывает информацию о времени.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenService creates a TokenService with the given signing secret and
// access token lifetime.
// NewTokenService создаёт TokenService с заданным секретом подписи и сроком
// жизни access-токена.
func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
	}
}

// GenerateAccessToken signs a token carrying the user's identity and current
// role names. Roles are read from the aggregate at call time, so a token
// issued after a role change carries the new set.
// GenerateAccessToken подписывает токен с идентичностью пользователя и
// текущими именами ролей. Роли читаются из агрегата в момент вызова, поэтому
// токен, выданный после смены ролей, несёт новый набор.
func (s *TokenService) GenerateAccessToken(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := accessClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Roles:  user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperror.Internal("failed to sign access token", err)
	}

	return signed, expiresAt, nil
}

// ValidateAccessToken verifies the signature and expiry and returns the
// claims. The parser is pinned to HS256, so tokens with a different or "none"
// algorithm are rejected. An expired token is rejected even when its
// signature is valid.
// ValidateAccessToken проверяет подпись и срок действия и возвращает клеймы.
// Парсер закреплён за HS256, поэтому токены с другим алгоритмом или "none"
// отклоняются. Истёкший токен отклоняется даже при корректной подписи.
func (s *TokenService) ValidateAccessToken(tokenString string) (*port.AccessClaims, error) {
	var claims accessClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, apperror.Unauthorized("invalid or expired token")
	}

	out := &port.AccessClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.TokenService = (*TokenService)(nil)
