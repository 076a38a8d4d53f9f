package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Indicator is a country-scoped macroeconomic series, e.g. "CPI (YoY)" for USD.
// Duplicates on (country_code, normalized_name) are tolerated until the dedup pass merges them.
type Indicator struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Name           string `gorm:"type:varchar(255);not null"`
	NormalizedName string `gorm:"type:varchar(255);not null;index:idx_indicators_country_name,priority:2"`
	RawName        string `gorm:"type:varchar(255)"`
	CountryCode    string `gorm:"type:varchar(10);not null;index:idx_indicators_country_name,priority:1"`
	Category       string `gorm:"type:varchar(50);index"`
	Impact         string `gorm:"type:varchar(10);not null;default:'low'"`
	SourceName     string `gorm:"type:varchar(100)"`
	SourceURL      string `gorm:"type:varchar(500)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Indicator) TableName() string {
	return "indicators"
}

func (i *Indicator) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Impact == "" {
		i.Impact = ImpactLow
	}
	return nil
}
