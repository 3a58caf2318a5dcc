package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is a persisted audit trail entry. Entries are written by the
// audit subscriber for every dispatched domain event, and transactionally
// for security-sensitive flows.
// AuditLog — сохранённая запись аудит-лога. Записи создаются аудит-подписчиком
// для каждого разосланного доменного события и транзакционно для
// чувствительных к безопасности операций.
type AuditLog struct {
	ID           int64      `json:"id" gorm:"primaryKey;autoIncrement"`        // Entry identifier / Идентификатор записи
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;index"`            // Affected user / Затронутый пользователь
	Action       string     `json:"action" gorm:"size:100;not null;index"`     // Event name, e.g. "access.role.assigned" / Имя события
	ResourceType string     `json:"resource_type" gorm:"size:50"`              // Resource kind / Тип ресурса
	ResourceID   string     `json:"resource_id" gorm:"size:100"`               // Resource identifier / Идентификатор ресурса
	Details      []byte     `json:"details" gorm:"type:jsonb"`                 // JSON payload / JSON-содержимое
	IPAddress    *string    `json:"ip_address,omitempty" gorm:"size:64"`       // Client IP if known / IP клиента, если известен
	UserAgent    *string    `json:"user_agent,omitempty" gorm:"size:512"`      // Client user agent if known / User agent клиента, если известен
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`                   // Entry timestamp / Время записи
}
