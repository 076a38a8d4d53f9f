package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/clause"

	"macrocal/internal/models"
)

func (s *Store) UpsertDataSource(ctx context.Context, item *models.DataSource) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind",
			"base_url",
			"auth_config",
			"enabled",
			"priority",
			"updated_at",
		}),
	}).Create(item).Error; err != nil {
		return err
	}
	// On conflict the generated id was discarded; reload the persisted row.
	var saved models.DataSource
	if err := s.db.WithContext(ctx).First(&saved, "name = ?", item.Name).Error; err != nil {
		return err
	}
	*item = saved
	return nil
}

func (s *Store) GetDataSourceByName(ctx context.Context, name string) (*models.DataSource, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.DataSource
	err := s.db.WithContext(ctx).First(&item, "name = ?", strings.TrimSpace(name)).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListDataSources(ctx context.Context, enabledOnly bool) ([]models.DataSource, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.DataSource{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	var items []models.DataSource
	if err := query.Order("priority asc").Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) TouchDataSourceSync(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.DataSource{}).
		Where("id = ?", id).
		Update("last_sync_at", at.UTC()).Error
}
