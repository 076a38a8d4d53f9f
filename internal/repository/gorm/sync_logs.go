package gormrepository

import (
	"context"
	"strings"

	"macrocal/internal/models"
	"macrocal/internal/repository"
)

func (s *Store) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SyncLog{})
	if params.DataSourceID != nil && strings.TrimSpace(*params.DataSourceID) != "" {
		query = query.Where("data_source_id = ?", strings.TrimSpace(*params.DataSourceID))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.ToLower(strings.TrimSpace(*params.Status)))
	}
	var items []models.SyncLog
	if err := query.
		Order("started_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
