package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"macrocal/internal/models"
	"macrocal/internal/repository"
)

var releaseOrderColumns = columnSet("release_at", "created_at", "updated_at")

var releaseNaturalKey = []clause.Column{{Name: "indicator_id"}, {Name: "release_at"}}

// InsertReleases inserts rows whose natural key is absent and leaves existing rows untouched.
// The returned count is the number of rows actually written.
func (s *Store) InsertReleases(ctx context.Context, items []models.Release, batchSize int) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	var inserted int64
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		res := s.db.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: releaseNaturalKey, DoNothing: true}).
			Create(items[i:end])
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += res.RowsAffected
	}
	return inserted, nil
}

// UpsertReleaseSchedules inserts new keys and refreshes period/forecast/previous on existing ones.
// actual, revised and revision_history are never touched here.
func (s *Store) UpsertReleaseSchedules(ctx context.Context, items []models.Release) (int64, int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, 0, nil
	}
	var inserted, updated int64
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		for i := range items {
			item := items[i]
			var existing models.Release
			err := tx.Where("indicator_id = ?", item.IndicatorID).
				Where("release_at = ?", item.ReleaseAt).
				First(&existing).Error
			if isNotFound(err) {
				if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
					return err
				}
				inserted++
				continue
			}
			if err != nil {
				return err
			}
			changes := map[string]any{}
			if item.Period != nil && !sameString(existing.Period, item.Period) {
				changes["period"] = *item.Period
			}
			if item.Forecast != nil && !sameString(existing.Forecast, item.Forecast) {
				changes["forecast"] = *item.Forecast
			}
			if item.Previous != nil && !sameString(existing.Previous, item.Previous) {
				changes["previous"] = *item.Previous
			}
			if len(changes) == 0 {
				continue
			}
			if err := tx.Model(&models.Release{}).Where("id = ?", existing.ID).Updates(changes).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (s *Store) GetRelease(ctx context.Context, id string) (*models.Release, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Release
	err := s.db.WithContext(ctx).Preload("Indicator").First(&item, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetReleaseByKey(ctx context.Context, indicatorID string, releaseAt time.Time) (*models.Release, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Release
	err := s.db.WithContext(ctx).
		Where("indicator_id = ?", indicatorID).
		Where("release_at = ?", releaseAt.UTC()).
		First(&item).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListReleasesByIndicatorTx(ctx context.Context, tx *gorm.DB, indicatorID string) ([]models.Release, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Release
	if err := s.conn(ctx, tx).
		Where("indicator_id = ?", indicatorID).
		Order("release_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListDueReleases(ctx context.Context, params repository.DueReleasesParams) ([]models.Release, error) {
	if s == nil || s.db == nil || len(params.Indicators) == 0 {
		return nil, nil
	}
	keys := make([][]any, 0, len(params.Indicators))
	for _, key := range params.Indicators {
		key = key.Normalized()
		keys = append(keys, []any{key.Name, key.CountryCode})
	}
	var items []models.Release
	if err := s.db.WithContext(ctx).
		Select("releases.*").
		Joins("JOIN indicators ON indicators.id = releases.indicator_id").
		Preload("Indicator").
		Where("releases.release_at <= ?", params.Now.UTC()).
		Where("releases.actual IS NULL").
		Where("(LOWER(REGEXP_REPLACE(TRIM(indicators.name), '\\s+', ' ', 'g')), UPPER(indicators.country_code)) IN ?", keys).
		Order("releases.release_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListReleases(ctx context.Context, params repository.ListReleasesParams) ([]models.Release, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := releaseFilters(s.db.WithContext(ctx).Model(&models.Release{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "release_at", releaseOrderColumns)
	var items []models.Release
	if err := query.
		Preload("Indicator").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountReleases(ctx context.Context, params repository.ListReleasesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := releaseFilters(s.db.WithContext(ctx).Model(&models.Release{}), params).Count(&total).Error
	return total, err
}

func releaseFilters(query *gorm.DB, params repository.ListReleasesParams) *gorm.DB {
	if params.IndicatorID != nil && strings.TrimSpace(*params.IndicatorID) != "" {
		query = query.Where("indicator_id = ?", strings.TrimSpace(*params.IndicatorID))
	}
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("release_at >= ?", params.From.UTC())
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("release_at < ?", params.To.UTC())
	}
	if params.HasActual != nil {
		if *params.HasActual {
			query = query.Where("actual IS NOT NULL")
		} else {
			query = query.Where("actual IS NULL")
		}
	}
	return query
}

func (s *Store) SaveReleaseActual(ctx context.Context, item *models.Release, prevActual *string) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	query := s.db.WithContext(ctx).Model(&models.Release{}).Where("id = ?", item.ID)
	if prevActual == nil {
		query = query.Where("actual IS NULL")
	} else {
		query = query.Where("actual = ?", *prevActual)
	}
	res := query.Updates(map[string]any{
		"actual":           item.Actual,
		"revised":          item.Revised,
		"revision_history": item.RevisionHistory,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}

func (s *Store) ReparentReleaseTx(ctx context.Context, tx *gorm.DB, releaseID, indicatorID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.conn(ctx, tx).
		Model(&models.Release{}).
		Where("id = ?", releaseID).
		Update("indicator_id", indicatorID).Error
}

func (s *Store) DeleteReleaseTx(ctx context.Context, tx *gorm.DB, releaseID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.conn(ctx, tx).Where("id = ?", releaseID).Delete(&models.Release{}).Error
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.TrimSpace(*a) == strings.TrimSpace(*b)
}
