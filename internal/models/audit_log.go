package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog captures notable authentication events. ActorID is nil for events
// that happen before an account is resolved.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID   *int64         `gorm:"index"`
	Action    string         `gorm:"type:text;not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;default:'{}'::jsonb"`
	CreatedAt time.Time      `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }
