// Package fixtures provides prebuilt domain objects for tests.
// Пакет fixtures предоставляет готовые доменные объекты для тестов.
package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/domain"
)

// PasswordHash is the bcrypt hash of "Vg7!plumTree".
// PasswordHash — bcrypt-хэш пароля "Vg7!plumTree".
const PasswordHash = "$2a$10$rQJjO5KFz3v5KTjcPNTmEOl8y7Xz5k7Jw9q5n3YxV1z2A3B4C5D6E"

// Permission builds a catalog permission, panicking on invalid input so
// fixture misuse fails loudly at test setup.
// Permission строит разрешение каталога с паникой при неверном вводе, чтобы
// неправильное использование фикстуры громко падало при подготовке теста.
func Permission(name string) domain.Permission {
	p, err := domain.NewPermission(name, "")
	if err != nil {
		panic("fixtures: invalid permission " + name + ": " + err.Error())
	}
	return *p
}

// Role builds a regular role carrying the given permissions.
// Role строит обычную роль с данными разрешениями.
func Role(name string, permissions ...string) domain.Role {
	r, err := domain.NewRole(name, "test role")
	if err != nil {
		panic("fixtures: invalid role " + name + ": " + err.Error())
	}
	for _, p := range permissions {
		if err := r.AddPermission(Permission(p)); err != nil {
			panic("fixtures: " + err.Error())
		}
	}
	return *r
}

// AdminRole builds the protected system role the way the seeder does.
// AdminRole строит защищённую системную роль так же, как это делает seeder.
func AdminRole() domain.Role {
	return domain.Role{
		ID:          uuid.New(),
		Name:        domain.SystemRoleAdmin,
		Description: "full administrative access",
		IsSystem:    true,
		Permissions: []domain.Permission{
			Permission("users:*"),
			Permission("roles:*"),
			Permission("permissions:*"),
			Permission("audit:read"),
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// MemberUser builds an active password user with the default member role.
// Pending registration events are drained so tests start from a clean slate.
// MemberUser строит активного пользователя с паролем и ролью member по
// умолчанию. Накопленные события регистрации сбрасываются, чтобы тесты
// начинались с чистого состояния.
func MemberUser(email string) *domain.User {
	user := domain.NewUser(email, PasswordHash, "Test User", Role(domain.DefaultRoleMember, "users:read"))
	user.PullEvents()
	return user
}

// AdminUser builds a user holding the protected system role.
// AdminUser строит пользователя с защищённой системной ролью.
func AdminUser(email string) *domain.User {
	user := domain.NewUser(email, PasswordHash, "Admin User", AdminRole())
	user.PullEvents()
	return user
}

// OAuthOnlyUser builds a password-less account with a single provider link.
// OAuthOnlyUser строит аккаунт без пароля с одной связью с провайдером.
func OAuthOnlyUser(email, provider, subject string) (*domain.User, *domain.OAuthConnection) {
	user := domain.NewUser(email, "", "OAuth User", Role(domain.DefaultRoleMember))
	user.PullEvents()
	conn := domain.NewOAuthConnection(user.ID, provider, subject, email)
	return user, conn
}

// RefreshTokenFor issues an active refresh token owned by the user.
// RefreshTokenFor выпускает активный refresh-токен, принадлежащий пользователю.
func RefreshTokenFor(user *domain.User, ttl time.Duration) *domain.RefreshToken {
	token, err := domain.NewRefreshToken(user.ID, ttl, "fixtures/1.0", "127.0.0.1")
	if err != nil {
		panic("fixtures: " + err.Error())
	}
	return token
}

// AuditEntry builds a minimal audit record for list assertions.
// AuditEntry строит минимальную запись аудита для проверок списков.
func AuditEntry(userID uuid.UUID, action string) domain.AuditLog {
	return domain.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   userID.String(),
		Details:      []byte(`{}`),
		CreatedAt:    time.Now(),
	}
}
