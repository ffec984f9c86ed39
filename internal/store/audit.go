package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"courier/internal/models"
)

// AuditRecorder records authentication events. Recording is best-effort:
// failures are logged and never fail the request that triggered them.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *int64, action string, metadata map[string]any)
}

// Audit is the GORM-backed AuditRecorder.
type Audit struct {
	orm *gorm.DB
}

func NewAudit(orm *gorm.DB) *Audit {
	return &Audit{orm: orm}
}

func (s *Audit) Record(ctx context.Context, actorID *int64, action string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("marshal audit metadata")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entry := models.AuditLog{
		ID:       uuid.New(),
		ActorID:  actorID,
		Action:   action,
		Metadata: datatypes.JSON(payload),
	}
	if err := s.orm.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("action", action).Msg("write audit log")
	}
}
