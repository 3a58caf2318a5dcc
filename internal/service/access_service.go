package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/pkg/telemetry"
	"github.com/andrewhigh08/access-service/internal/port"
)

// AccessService implements port.AccessService: it resolves a user's
// effective permission set and answers authorization checks against it.
//
// The effective set is the deduplicated union of the permissions of every
// role the user holds plus the user's individual grants, keyed by the
// canonical "resource:action" form. A Redis cache sits in front of the
// resolution; InvalidateUserPermissions is the contract hook that every
// role/permission mutation must call.
//
// AccessService реализует port.AccessService: вычисляет эффективный набор
// разрешений пользователя и отвечает на проверки авторизации по нему.
//
// Эффективный набор — дедуплицированное объединение разрешений всех ролей
// пользователя и его индивидуальных выдач с ключом в канонической форме
// "resource:action". Перед вычислением стоит кэш Redis;
// InvalidateUserPermissions — контрактный хук, который обязана вызывать
// каждая мутация ролей/разрешений.
type AccessService struct {
	roleRepo port.RoleRepository
	permRepo port.PermissionRepository
	cache    port.PermissionCache
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewAccessService creates a new AccessService instance.
// NewAccessService создаёт новый экземпляр AccessService.
func NewAccessService(
	roleRepo port.RoleRepository,
	permRepo port.PermissionRepository,
	cache port.PermissionCache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *AccessService {
	return &AccessService{
		roleRepo: roleRepo,
		permRepo: permRepo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithComponent("access_service"),
	}
}

// GetEffectivePermissions returns the user's resolved permission set as
// sorted canonical names. Served from cache when possible.
// GetEffectivePermissions возвращает вычисленный набор разрешений
// пользователя в виде отсортированных канонических имён. По возможности
// отдаётся из кэша.
func (s *AccessService) GetEffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	log := s.logger.WithContext(ctx)

	if cached, ok, err := s.cache.GetUserPermissions(ctx, userID); err != nil {
		// A broken cache degrades to resolution, never to denial.
		// Сломанный кэш деградирует до вычисления, но не до отказа.
		log.Warn("permission cache read failed", "user_id", userID.String(), "error", err)
	} else if ok {
		telemetry.AddSpanAttributes(ctx, telemetry.AttrCacheHit.Bool(true))
		return cached, nil
	}

	resolved, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetUserPermissions(ctx, userID, resolved, s.cacheTTL); err != nil {
		log.Warn("permission cache write failed", "user_id", userID.String(), "error", err)
	}

	return resolved, nil
}

// resolve computes the deduplicated union of role permissions and
// individual grants.
// resolve вычисляет дедуплицированное объединение разрешений ролей и
// индивидуальных выдач.
func (s *AccessService) resolve(ctx context.Context, userID uuid.UUID) ([]string, error) {
	roles, err := s.roleRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	individual, err := s.permRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Dedupe by canonical name: the same pair granted through two roles and
	// an individual grant appears once.
	// Дедупликация по каноническому имени: одна и та же пара, выданная через
	// две роли и индивидуально, появляется один раз.
	seen := make(map[string]struct{})
	for _, role := range roles {
		for _, p := range role.Permissions {
			seen[p.Name()] = struct{}{}
		}
	}
	for _, p := range individual {
		seen[p.Name()] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// UserHasPermission checks a single requested "resource:action" against the
// effective set, honoring wildcard actions. A malformed request string is an
// authorization miss (false), never an error: authorization checks must not
// throw on bad input.
// UserHasPermission проверяет один запрошенный "resource:action" по
// эффективному набору с учётом подстановочных действий. Некорректная строка
// запроса — отказ авторизации (false), но не ошибка: проверки авторизации не
// должны падать на плохом вводе.
func (s *AccessService) UserHasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	requested, err := domain.ParsePermission(permission)
	if err != nil {
		s.logger.WithContext(ctx).Debug("malformed permission in check",
			"user_id", userID.String(),
			"permission", permission,
		)
		return false, nil
	}

	effective, err := s.GetEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	allowed := false
	for _, name := range effective {
		held, err := domain.ParsePermission(name)
		if err != nil {
			// A corrupt stored name must not grant anything.
			// Повреждённое сохранённое имя не должно ничего выдавать.
			continue
		}
		if held.Grants(requested) {
			allowed = true
			break
		}
	}

	s.logger.WithContext(ctx).LogAuthzDecision(userID.String(), requested.Resource, requested.Action, allowed)
	telemetry.AddSpanAttributes(ctx,
		telemetry.AttrResource.String(requested.Resource),
		telemetry.AttrAction.String(requested.Action),
		telemetry.AttrAllowed.Bool(allowed),
	)
	return allowed, nil
}

// UserHasAnyPermission short-circuits on the first granted permission.
// UserHasAnyPermission завершается на первом выданном разрешении.
func (s *AccessService) UserHasAnyPermission(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error) {
	for _, p := range permissions {
		allowed, err := s.UserHasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

// UserHasAllPermissions short-circuits on the first denied permission.
// UserHasAllPermissions завершается на первом отклонённом разрешении.
func (s *AccessService) UserHasAllPermissions(ctx context.Context, userID uuid.UUID, permissions []string) (bool, error) {
	for _, p := range permissions {
		allowed, err := s.UserHasPermission(ctx, userID, p)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}
	return true, nil
}

// InvalidateUserPermissions drops the user's cached effective set. Called by
// every mutation that can change it; a missed call here turns a cache entry
// into a stale authorization decision.
// InvalidateUserPermissions сбрасывает кэшированный эффективный набор
// пользователя. Вызывается каждой мутацией, способной его изменить;
// пропущенный вызов превращает запись кэша в устаревшее решение авторизации.
func (s *AccessService) InvalidateUserPermissions(ctx context.Context, userID uuid.UUID) error {
	return s.cache.InvalidateUser(ctx, userID)
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.AccessService = (*AccessService)(nil)
