package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
)

// AuditService implements port.AuditService.
//
// It records the audit trail two ways: directly, for flows that need the
// entry inside the owning transaction, and as an event bus subscriber
// (HandleEvent) for every published domain event.
//
// AuditService реализует port.AuditService.
//
// Он ведёт аудит-лог двумя путями: напрямую, для операций, которым нужна
// запись внутри владеющей транзакции, и как подписчик шины событий
// (HandleEvent) для каждого опубликованного доменного события.
type AuditService struct {
	auditRepo port.AuditLogRepository
	logger    *logger.Logger
}

// NewAuditService creates a new AuditService instance.
// NewAuditService создаёт новый экземпляр AuditService.
func NewAuditService(auditRepo port.AuditLogRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    log.WithComponent("audit_service"),
	}
}

// LogAction logs an action to the audit trail.
// LogAction записывает действие в аудит-лог.
func (s *AuditService) LogAction(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID string, details map[string]interface{}) error {
	return s.log(ctx, nil, userID, action, resourceType, resourceID, details, "", "")
}

// LogActionTx logs an action within an existing transaction.
// LogActionTx записывает действие в рамках существующей транзакции.
func (s *AuditService) LogActionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action, resourceType, resourceID string, details map[string]interface{}) error {
	return s.log(ctx, tx, userID, action, resourceType, resourceID, details, "", "")
}

// log builds and persists one audit entry.
func (s *AuditService) log(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action, resourceType, resourceID string, details map[string]interface{}, ipAddress, userAgent string) error {
	logg := s.logger.WithContext(ctx)

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		logg.Error("failed to marshal audit details", "error", err)
		return apperror.Internal("failed to marshal audit details", err)
	}

	var ipPtr, uaPtr *string
	if ipAddress != "" {
		ipPtr = &ipAddress
	}
	if userAgent != "" {
		uaPtr = &userAgent
	}

	entry := &domain.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      detailsJSON,
		IPAddress:    ipPtr,
		UserAgent:    uaPtr,
		CreatedAt:    time.Now(),
	}

	if tx != nil {
		err = s.auditRepo.CreateTx(ctx, tx, entry)
	} else {
		err = s.auditRepo.Create(ctx, entry)
	}
	if err != nil {
		logg.Error("failed to create audit log", "action", action, "error", err)
		return err
	}

	logg.Debug("audit log created", "action", action, "resource_type", resourceType, "resource_id", resourceID)
	return nil
}

// GetUserAuditLogs retrieves recent audit log entries for a user.
// GetUserAuditLogs получает последние записи аудит-лога для пользователя.
func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50 // Default limit / Лимит по умолчанию
	}
	return s.auditRepo.FindByUserID(ctx, userID, limit)
}

// HandleEvent is the event bus subscriber: it turns every domain event into
// an audit entry. Registered with SubscribeAll at startup.
// HandleEvent — подписчик шины событий: превращает каждое доменное событие
// в запись аудита. Регистрируется через SubscribeAll при запуске.
func (s *AuditService) HandleEvent(ctx context.Context, event domain.Event) error {
	var (
		userID       uuid.UUID
		resourceType string
		resourceID   string
		details      map[string]interface{}
		ipAddress    string
		userAgent    string
	)

	switch e := event.(type) {
	case domain.UserRegisteredEvent:
		userID, resourceType, resourceID = e.UserID, "user", e.UserID.String()
		details = map[string]interface{}{"email": e.Email}
	case domain.UserLoggedInEvent:
		userID, resourceType, resourceID = e.UserID, "user", e.UserID.String()
		ipAddress, userAgent = e.IPAddress, e.UserAgent
	case domain.UserLoggedOutEvent:
		userID, resourceType, resourceID = e.UserID, "user", e.UserID.String()
		details = map[string]interface{}{"all_devices": e.AllDevices}
	case domain.RoleAssignedEvent:
		userID, resourceType, resourceID = e.UserID, "role", e.RoleName
		details = map[string]interface{}{"actor_id": e.ActorID.String()}
	case domain.RoleRemovedEvent:
		userID, resourceType, resourceID = e.UserID, "role", e.RoleName
		details = map[string]interface{}{"actor_id": e.ActorID.String()}
	case domain.PermissionGrantedEvent:
		userID, resourceType, resourceID = e.UserID, "permission", e.Permission
		details = map[string]interface{}{"actor_id": e.ActorID.String()}
	case domain.PermissionRevokedEvent:
		userID, resourceType, resourceID = e.UserID, "permission", e.Permission
		details = map[string]interface{}{"actor_id": e.ActorID.String()}
	case domain.OAuthUnlinkedEvent:
		userID, resourceType, resourceID = e.UserID, "oauth_connection", e.Provider
		details = map[string]interface{}{"actor_id": e.ActorID.String()}
	case domain.TokenReuseDetectedEvent:
		userID, resourceType, resourceID = e.UserID, "refresh_token", e.UserID.String()
		ipAddress, userAgent = e.IPAddress, e.UserAgent
	default:
		// Unknown events are logged, not persisted.
		// Неизвестные события логируются, но не сохраняются.
		s.logger.WithContext(ctx).Debug("unhandled event type in audit subscriber", "event", event.EventName())
		return nil
	}

	return s.log(ctx, nil, userID, event.EventName(), resourceType, resourceID, details, ipAddress, userAgent)
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.AuditService = (*AuditService)(nil)
