package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"
)

// SyncLog records one orchestrator run. Rows are append-only.
type SyncLog struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)"`
	DataSourceID     *string        `gorm:"type:varchar(36);index"`
	Status           string         `gorm:"type:varchar(20);not null;index"`
	RecordsProcessed int            `gorm:"not null;default:0"`
	ErrorsCount      int            `gorm:"not null;default:0"`
	Metadata         datatypes.JSON `gorm:"type:jsonb"`
	StartedAt        time.Time      `gorm:"type:timestamptz;not null;index"`
	CompletedAt      *time.Time     `gorm:"type:timestamptz"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

func (s *SyncLog) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
