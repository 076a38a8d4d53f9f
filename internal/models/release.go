package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Release is one scheduled or observed data point of an Indicator.
// (indicator_id, release_at) is the natural key used for idempotent upserts.
type Release struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	IndicatorID     string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_releases_natural_key,priority:1"`
	ReleaseAt       time.Time      `gorm:"type:timestamptz;not null;uniqueIndex:idx_releases_natural_key,priority:2;index"`
	Period          *string        `gorm:"type:varchar(20)"`
	Actual          *string        `gorm:"type:varchar(50)"`
	Forecast        *string        `gorm:"type:varchar(50)"`
	Previous        *string        `gorm:"type:varchar(50)"`
	Revised         *string        `gorm:"type:varchar(50)"`
	RevisionHistory datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`

	Indicator *Indicator `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

// RevisionRecord is appended to Release.RevisionHistory when a published actual changes.
type RevisionRecord struct {
	PreviousActual string    `json:"previous_actual"`
	NewActual      string    `json:"new_actual"`
	RevisedAt      time.Time `json:"revised_at"`
}

func (Release) TableName() string {
	return "releases"
}

func (r *Release) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if len(r.RevisionHistory) == 0 {
		r.RevisionHistory = datatypes.JSON([]byte("[]"))
	}
	return nil
}

// Revisions decodes the revision history. An empty or null column yields no records.
func (r *Release) Revisions() ([]RevisionRecord, error) {
	if r == nil || len(r.RevisionHistory) == 0 || string(r.RevisionHistory) == "null" {
		return nil, nil
	}
	var out []RevisionRecord
	if err := json.Unmarshal(r.RevisionHistory, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendRevision adds rec after the existing records; earlier entries are never rewritten.
func (r *Release) AppendRevision(rec RevisionRecord) error {
	history, err := r.Revisions()
	if err != nil {
		return err
	}
	history = append(history, rec)
	payload, err := json.Marshal(history)
	if err != nil {
		return err
	}
	r.RevisionHistory = datatypes.JSON(payload)
	return nil
}
