package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"macrocal/internal/models"
	"macrocal/internal/repository"
)

var indicatorOrderColumns = columnSet("created_at", "name", "country_code", "category", "impact")

func (s *Store) FindIndicator(ctx context.Context, countryCode, normalizedName string) (*models.Indicator, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Indicator
	err := s.db.WithContext(ctx).
		Where("country_code = ?", countryCode).
		Where("normalized_name = ?", normalizedName).
		Order("created_at asc").
		Order("id asc").
		First(&item).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateIndicator(ctx context.Context, item *models.Indicator) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAllIndicators(ctx context.Context) ([]models.Indicator, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Indicator
	if err := s.db.WithContext(ctx).
		Order("created_at asc").
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListIndicators(ctx context.Context, params repository.ListIndicatorsParams) ([]models.Indicator, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := indicatorFilters(s.db.WithContext(ctx).Model(&models.Indicator{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at", indicatorOrderColumns)
	var items []models.Indicator
	if err := query.
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountIndicators(ctx context.Context, params repository.ListIndicatorsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := indicatorFilters(s.db.WithContext(ctx).Model(&models.Indicator{}), params).Count(&total).Error
	return total, err
}

func indicatorFilters(query *gorm.DB, params repository.ListIndicatorsParams) *gorm.DB {
	if params.CountryCode != nil && strings.TrimSpace(*params.CountryCode) != "" {
		query = query.Where("country_code = ?", strings.ToUpper(strings.TrimSpace(*params.CountryCode)))
	}
	if params.Category != nil && strings.TrimSpace(*params.Category) != "" {
		query = query.Where("category = ?", strings.TrimSpace(*params.Category))
	}
	if params.Impact != nil && strings.TrimSpace(*params.Impact) != "" {
		query = query.Where("impact = ?", strings.ToLower(strings.TrimSpace(*params.Impact)))
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		query = query.Where("name ILIKE ?", "%"+strings.TrimSpace(*params.Name)+"%")
	}
	return query
}

func (s *Store) RenameIndicatorTx(ctx context.Context, tx *gorm.DB, id, name string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.conn(ctx, tx).
		Model(&models.Indicator{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":            name,
			"normalized_name": name,
		}).Error
}

func (s *Store) DeleteIndicatorTx(ctx context.Context, tx *gorm.DB, id string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.conn(ctx, tx).Where("id = ?", id).Delete(&models.Indicator{}).Error
}
