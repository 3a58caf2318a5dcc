package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// PermissionService manages the permission catalog. Permissions referenced
// by roles or individual grants must exist here first.
// PermissionService управляет каталогом разрешений. Разрешения, на которые
// ссылаются роли или индивидуальные выдачи, должны сначала существовать здесь.
type PermissionService struct {
	permRepo port.PermissionRepository
	logger   *logger.Logger
}

// NewPermissionService creates a new PermissionService instance.
// NewPermissionService создаёт новый экземпляр PermissionService.
func NewPermissionService(permRepo port.PermissionRepository, log *logger.Logger) *PermissionService {
	return &PermissionService{
		permRepo: permRepo,
		logger:   log.WithComponent("permission_service"),
	}
}

// CreatePermission registers a new catalog entry.
// CreatePermission регистрирует новую запись каталога.
func (s *PermissionService) CreatePermission(ctx context.Context, req domain.CreatePermissionRequest, actorID uuid.UUID) (*domain.Permission, error) {
	perm, err := domain.NewPermission(req.Name, req.Description)
	if err != nil {
		return nil, apperror.ValidationError(err.Error(), map[string]interface{}{"permission": req.Name})
	}

	if existing, err := s.permRepo.FindByName(ctx, perm.Name()); err == nil && existing != nil {
		return nil, apperror.Conflict("permission", "name", perm.Name())
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}

	if err := s.permRepo.Create(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("permission created",
		"permission", perm.Name(), "actor_id", actorID.String())
	return perm, nil
}

// ListPermissions returns the whole catalog.
// ListPermissions возвращает весь каталог.
func (s *PermissionService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.permRepo.FindAll(ctx)
}

// DeletePermission removes a catalog entry. Role and user associations are
// removed with it by the repository.
// DeletePermission удаляет запись каталога. Связи с ролями и пользователями
// удаляются вместе с ней репозиторием.
func (s *PermissionService) DeletePermission(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.permRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Info("permission deleted",
		"permission", perm.Name(), "actor_id", actorID.String())
	return nil
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.PermissionService = (*PermissionService)(nil)
