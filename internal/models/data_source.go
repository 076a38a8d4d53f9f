package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DataSourceKindScraper = "scraper"
	DataSourceKindAPI     = "api"
)

// DataSource identifies an external calendar or statistics origin.
type DataSource struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)"`
	Name       string         `gorm:"type:varchar(100);uniqueIndex;not null"`
	Kind       string         `gorm:"type:varchar(20);not null"`
	BaseURL    string         `gorm:"type:varchar(500)"`
	AuthConfig datatypes.JSON `gorm:"type:jsonb"`
	Enabled    bool           `gorm:"not null"`
	Priority   int            `gorm:"default:100;index"`
	LastSyncAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (DataSource) TableName() string {
	return "data_sources"
}

func (d *DataSource) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
