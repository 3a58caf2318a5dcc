package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/pkg/validator"
	"github.com/andrewhigh08/access-service/internal/port"
)

// UserService implements port.UserService: registration, role assignment,
// individual permission grants and OAuth connection management.
//
// Aggregate mutations run through the domain methods, which enforce the
// invariants (no duplicate roles, roles never empty, at least one
// authentication method) and record domain events. After a successful save
// the service pulls the events, publishes them on the bus and invalidates
// the user's cached permission set.
//
// UserService реализует port.UserService: регистрацию, назначение ролей,
// индивидуальные выдачи разрешений и управление OAuth-связями.
//
// Мутации агрегата проходят через доменные методы, которые обеспечивают
// инварианты (нет дублей ролей, роли никогда не пусты, минимум один способ
// аутентификации) и фиксируют доменные события. После успешного сохранения
// сервис забирает события, публикует их в шину и инвалидирует кэшированный
// набор разрешений пользователя.
type UserService struct {
	userRepo  port.UserRepository
	roleRepo  port.RoleRepository
	permRepo  port.PermissionRepository
	oauthRepo port.OAuthConnectionRepository
	txManager port.Transaction
	access    port.AccessService
	events    port.EventPublisher
	logger    *logger.Logger
}

// NewUserService creates a new UserService instance.
// NewUserService создаёт новый экземпляр UserService.
func NewUserService(
	userRepo port.UserRepository,
	roleRepo port.RoleRepository,
	permRepo port.PermissionRepository,
	oauthRepo port.OAuthConnectionRepository,
	txManager port.Transaction,
	access port.AccessService,
	events port.EventPublisher,
	log *logger.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		permRepo:  permRepo,
		oauthRepo: oauthRepo,
		txManager: txManager,
		access:    access,
		events:    events,
		logger:    log.WithComponent("user_service"),
	}
}

// Register creates an account with the default member role, so the "roles
// never empty" invariant holds from the first save.
// Register создаёт учётную запись с ролью member по умолчанию, чтобы
// инвариант «роли никогда не пусты» выполнялся с первого сохранения.
func (s *UserService) Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, error) {
	log := s.logger.WithContext(ctx)

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.Conflict("user", "email", req.Email)
	}

	if result := validator.ValidatePasswordDefault(req.Password); !result.Valid {
		return nil, apperror.ValidationError("password does not meet requirements", map[string]interface{}{
			"errors":   result.Errors,
			"strength": result.Strength.String(),
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	memberRole, err := s.roleRepo.FindByName(ctx, domain.DefaultRoleMember)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(req.Email, string(hash), req.FullName, *memberRole)
	user.Phone = req.Phone

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.userRepo.CreateTx(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	log.Info("user registered", "user_id", user.ID.String())
	s.events.Publish(ctx, user.PullEvents()...)
	return user, nil
}

// GetUser loads a user with roles and individual permissions.
// GetUser загружает пользователя с ролями и индивидуальными разрешениями.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// AssignRole assigns a role by name. Duplicate assignments are rejected by
// the aggregate; the permission cache is invalidated on success.
// AssignRole назначает роль по имени. Повторные назначения отклоняются
// агрегатом; кэш разрешений инвалидируется при успехе.
func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, roleName string, actorID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	role, err := s.roleRepo.FindByName(ctx, roleName)
	if err != nil {
		return err
	}

	if err := user.AssignRole(*role, actorID); err != nil {
		return mapUserError(err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.finishMutation(ctx, user)
	return nil
}

// RemoveRole removes a role by name. Removing the last role is rejected by
// the aggregate.
// RemoveRole снимает роль по имени. Снятие последней роли отклоняется
// агрегатом.
func (s *UserService) RemoveRole(ctx context.Context, userID uuid.UUID, roleName string, actorID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := user.RemoveRole(roleName, actorID); err != nil {
		return mapUserError(err)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.finishMutation(ctx, user)
	return nil
}

// GrantPermission grants an individual permission from the catalog.
// GrantPermission выдаёт индивидуальное разрешение из каталога.
func (s *UserService) GrantPermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := domain.ParsePermission(permission); err != nil {
		return apperror.ValidationError(err.Error(), map[string]interface{}{"permission": permission})
	}

	perm, err := s.permRepo.FindByName(ctx, permission)
	if err != nil {
		return err
	}

	if err := user.GrantPermission(*perm, actorID); err != nil {
		return mapUserError(err)
	}

	if err := s.permRepo.AssignToUser(ctx, userID, perm.ID); err != nil {
		return err
	}

	s.finishMutation(ctx, user)
	return nil
}

// RevokePermission revokes an individual permission.
// RevokePermission отзывает индивидуальное разрешение.
func (s *UserService) RevokePermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if _, err := domain.ParsePermission(permission); err != nil {
		return apperror.ValidationError(err.Error(), map[string]interface{}{"permission": permission})
	}

	perm, err := s.permRepo.FindByName(ctx, permission)
	if err != nil {
		return err
	}

	if err := user.RevokePermission(*perm, actorID); err != nil {
		return mapUserError(err)
	}

	if err := s.permRepo.RemoveFromUser(ctx, userID, perm.ID); err != nil {
		return err
	}

	s.finishMutation(ctx, user)
	return nil
}

// LinkOAuth attaches an external identity to the account.
// LinkOAuth привязывает внешнюю учётную запись к аккаунту.
func (s *UserService) LinkOAuth(ctx context.Context, userID uuid.UUID, provider, providerUserID, email string) (*domain.OAuthConnection, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	if existing, err := s.oauthRepo.FindByProviderSubject(ctx, provider, providerUserID); err == nil && existing != nil {
		return nil, apperror.Conflict("oauth_connection", "provider_user_id", providerUserID)
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}

	conn := domain.NewOAuthConnection(userID, provider, providerUserID, email)
	if err := s.oauthRepo.Create(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("oauth connection linked",
		"user_id", userID.String(), "provider", provider)
	return conn, nil
}

// UnlinkOAuth detaches an external identity. A password-less account must
// keep at least one connection, otherwise the user would be locked out of
// their own account forever.
// UnlinkOAuth отвязывает внешнюю учётную запись. Аккаунт без пароля должен
// сохранить хотя бы одну связь, иначе пользователь навсегда потеряет доступ
// к собственной учётной записи.
func (s *UserService) UnlinkOAuth(ctx context.Context, userID uuid.UUID, provider string, actorID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	connections, err := s.oauthRepo.FindByUserID(ctx, userID)
	if err != nil {
		return err
	}

	var target *domain.OAuthConnection
	for i := range connections {
		if connections[i].Provider == provider {
			target = &connections[i]
			break
		}
	}
	if target == nil {
		return apperror.NotFound("oauth_connection", provider)
	}

	if !user.HasPassword() && len(connections) <= 1 {
		return mapUserError(domain.ErrLastAuthMethod)
	}

	if err := s.oauthRepo.Delete(ctx, target.ID); err != nil {
		return err
	}

	s.events.Publish(ctx, domain.OAuthUnlinkedEvent{
		UserID:   userID,
		Provider: provider,
		ActorID:  actorID,
		At:       time.Now(),
	})
	return nil
}

// finishMutation publishes the aggregate's pending events and invalidates
// the cached permission set. Runs after the save succeeded.
// finishMutation публикует накопленные события агрегата и инвалидирует
// кэшированный набор разрешений. Выполняется после успешного сохранения.
func (s *UserService) finishMutation(ctx context.Context, user *domain.User) {
	s.events.Publish(ctx, user.PullEvents()...)

	if err := s.access.InvalidateUserPermissions(ctx, user.ID); err != nil {
		s.logger.WithContext(ctx).Error("failed to invalidate user permissions",
			"user_id", user.ID.String(), "error", err)
	}
}

// mapUserError translates aggregate rule violations into transport errors.
// mapUserError транслирует нарушения правил агрегата в транспортные ошибки.
func mapUserError(err error) error {
	switch err {
	case domain.ErrAlreadyHasRole,
		domain.ErrDoesNotHaveRole,
		domain.ErrCannotRemoveLastRole,
		domain.ErrPermissionAlreadyGranted,
		domain.ErrPermissionNotGranted,
		domain.ErrLastAuthMethod:
		return apperror.New(apperror.CodeConflict, err.Error(), http.StatusConflict)
	default:
		return err
	}
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.UserService = (*UserService)(nil)
