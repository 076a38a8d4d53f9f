package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"macrocal/internal/models"
	"macrocal/internal/repository"
)

// stubRepo is an in-memory repository.Repository. InTx runs fn with a nil tx and
// restores a snapshot when fn fails.
type stubRepo struct {
	dataSources map[string]*models.DataSource
	indicators  map[string]*models.Indicator
	releases    map[string]*models.Release
	syncLogs    []models.SyncLog
	seq         int

	failDeleteIndicator map[string]bool
	failInsertIndicator map[string]bool
	insertBatchErr      error
	onCreateIndicator   func(created int)
	createdIndicators   int
	touched             map[string]time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		dataSources:         map[string]*models.DataSource{},
		indicators:          map[string]*models.Indicator{},
		releases:            map[string]*models.Release{},
		failDeleteIndicator: map[string]bool{},
		failInsertIndicator: map[string]bool{},
		touched:             map[string]time.Time{},
	}
}

var _ repository.Repository = (*stubRepo)(nil)

func (s *stubRepo) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	indicators := map[string]models.Indicator{}
	for k, v := range s.indicators {
		indicators[k] = *v
	}
	releases := map[string]models.Release{}
	for k, v := range s.releases {
		releases[k] = *v
	}
	if err := fn(nil); err != nil {
		s.indicators = map[string]*models.Indicator{}
		for k, v := range indicators {
			v := v
			s.indicators[k] = &v
		}
		s.releases = map[string]*models.Release{}
		for k, v := range releases {
			v := v
			s.releases[k] = &v
		}
		return err
	}
	return nil
}

func (s *stubRepo) UpsertDataSource(ctx context.Context, item *models.DataSource) error {
	for _, existing := range s.dataSources {
		if existing.Name == item.Name {
			existing.Kind, existing.BaseURL, existing.AuthConfig = item.Kind, item.BaseURL, item.AuthConfig
			existing.Enabled, existing.Priority = item.Enabled, item.Priority
			*item = *existing
			return nil
		}
	}
	if item.ID == "" {
		item.ID = s.nextID("ds")
	}
	saved := *item
	s.dataSources[item.ID] = &saved
	return nil
}

func (s *stubRepo) GetDataSourceByName(ctx context.Context, name string) (*models.DataSource, error) {
	for _, ds := range s.dataSources {
		if ds.Name == name {
			out := *ds
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListDataSources(ctx context.Context, enabledOnly bool) ([]models.DataSource, error) {
	var out []models.DataSource
	for _, ds := range s.dataSources {
		if enabledOnly && !ds.Enabled {
			continue
		}
		out = append(out, *ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *stubRepo) TouchDataSourceSync(ctx context.Context, id string, at time.Time) error {
	s.touched[id] = at
	if ds, ok := s.dataSources[id]; ok {
		t := at
		ds.LastSyncAt = &t
	}
	return nil
}

func (s *stubRepo) FindIndicator(ctx context.Context, countryCode, normalizedName string) (*models.Indicator, error) {
	var found *models.Indicator
	for _, ind := range s.indicators {
		if ind.CountryCode != countryCode || ind.NormalizedName != normalizedName {
			continue
		}
		if found == nil || ind.CreatedAt.Before(found.CreatedAt) || (ind.CreatedAt.Equal(found.CreatedAt) && ind.ID < found.ID) {
			found = ind
		}
	}
	if found == nil {
		return nil, nil
	}
	out := *found
	return &out, nil
}

func (s *stubRepo) CreateIndicator(ctx context.Context, item *models.Indicator) error {
	if item.ID == "" {
		item.ID = s.nextID("ind")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Date(2025, 1, 1, 0, 0, s.seq, 0, time.UTC)
	}
	saved := *item
	s.indicators[item.ID] = &saved
	s.createdIndicators++
	if s.onCreateIndicator != nil {
		s.onCreateIndicator(s.createdIndicators)
	}
	return nil
}

func (s *stubRepo) ListAllIndicators(ctx context.Context) ([]models.Indicator, error) {
	out := make([]models.Indicator, 0, len(s.indicators))
	for _, ind := range s.indicators {
		out = append(out, *ind)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *stubRepo) ListIndicators(ctx context.Context, params repository.ListIndicatorsParams) ([]models.Indicator, error) {
	all, _ := s.ListAllIndicators(ctx)
	var out []models.Indicator
	for _, ind := range all {
		if params.CountryCode != nil && !strings.EqualFold(ind.CountryCode, *params.CountryCode) {
			continue
		}
		out = append(out, ind)
	}
	return out, nil
}

func (s *stubRepo) CountIndicators(ctx context.Context, params repository.ListIndicatorsParams) (int64, error) {
	items, _ := s.ListIndicators(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) RenameIndicatorTx(ctx context.Context, tx *gorm.DB, id, name string) error {
	ind, ok := s.indicators[id]
	if !ok {
		return repository.ErrNotFound
	}
	ind.Name, ind.NormalizedName = name, name
	return nil
}

func (s *stubRepo) DeleteIndicatorTx(ctx context.Context, tx *gorm.DB, id string) error {
	if s.failDeleteIndicator[id] {
		return errors.New("delete indicator refused")
	}
	delete(s.indicators, id)
	for rid, rel := range s.releases {
		if rel.IndicatorID == id {
			delete(s.releases, rid)
		}
	}
	return nil
}

func (s *stubRepo) findByKey(indicatorID string, at time.Time) *models.Release {
	for _, rel := range s.releases {
		if rel.IndicatorID == indicatorID && rel.ReleaseAt.Equal(at) {
			return rel
		}
	}
	return nil
}

func (s *stubRepo) insertOne(item models.Release) (bool, error) {
	if err := s.checkForeignKey(item); err != nil {
		return false, err
	}
	if s.findByKey(item.IndicatorID, item.ReleaseAt) != nil {
		return false, nil
	}
	if item.ID == "" {
		item.ID = s.nextID("rel")
	}
	if len(item.RevisionHistory) == 0 {
		item.RevisionHistory = []byte("[]")
	}
	s.releases[item.ID] = &item
	return true, nil
}

func (s *stubRepo) checkForeignKey(item models.Release) error {
	if _, ok := s.indicators[item.IndicatorID]; !ok || s.failInsertIndicator[item.IndicatorID] {
		return fmt.Errorf("foreign key violation for indicator %s", item.IndicatorID)
	}
	return nil
}

// InsertReleases mirrors the gorm store: each batch is one statement that either
// commits whole or fails whole.
func (s *stubRepo) InsertReleases(ctx context.Context, items []models.Release, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	var n int64
	for start := 0; start < len(items); start += batchSize {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		if s.insertBatchErr != nil && len(batch) > 1 {
			return n, s.insertBatchErr
		}
		for _, item := range batch {
			if err := s.checkForeignKey(item); err != nil {
				return n, err
			}
		}
		for _, item := range batch {
			if ok, _ := s.insertOne(item); ok {
				n++
			}
		}
	}
	return n, nil
}

func (s *stubRepo) UpsertReleaseSchedules(ctx context.Context, items []models.Release) (int64, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	for _, item := range items {
		if err := s.checkForeignKey(item); err != nil {
			return 0, 0, err
		}
	}
	var inserted, updated int64
	for _, item := range items {
		if existing := s.findByKey(item.IndicatorID, item.ReleaseAt); existing != nil {
			changed := false
			if item.Forecast != nil && (existing.Forecast == nil || *existing.Forecast != *item.Forecast) {
				existing.Forecast, changed = item.Forecast, true
			}
			if item.Previous != nil && (existing.Previous == nil || *existing.Previous != *item.Previous) {
				existing.Previous, changed = item.Previous, true
			}
			if item.Period != nil && (existing.Period == nil || *existing.Period != *item.Period) {
				existing.Period, changed = item.Period, true
			}
			if changed {
				updated++
			}
			continue
		}
		ok, err := s.insertOne(item)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, updated, nil
}

func (s *stubRepo) withIndicator(rel models.Release) models.Release {
	if ind, ok := s.indicators[rel.IndicatorID]; ok {
		cp := *ind
		rel.Indicator = &cp
	}
	return rel
}

func (s *stubRepo) GetRelease(ctx context.Context, id string) (*models.Release, error) {
	rel, ok := s.releases[id]
	if !ok {
		return nil, nil
	}
	out := s.withIndicator(*rel)
	return &out, nil
}

func (s *stubRepo) GetReleaseByKey(ctx context.Context, indicatorID string, releaseAt time.Time) (*models.Release, error) {
	rel := s.findByKey(indicatorID, releaseAt)
	if rel == nil {
		return nil, nil
	}
	out := *rel
	return &out, nil
}

func (s *stubRepo) releasesWhere(match func(*models.Release) bool) []models.Release {
	var out []models.Release
	for _, rel := range s.releases {
		if match(rel) {
			out = append(out, s.withIndicator(*rel))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReleaseAt.Before(out[j].ReleaseAt) })
	return out
}

func (s *stubRepo) ListReleasesByIndicatorTx(ctx context.Context, tx *gorm.DB, indicatorID string) ([]models.Release, error) {
	return s.releasesWhere(func(r *models.Release) bool { return r.IndicatorID == indicatorID }), nil
}

func (s *stubRepo) ListDueReleases(ctx context.Context, params repository.DueReleasesParams) ([]models.Release, error) {
	covered := map[repository.IndicatorKey]bool{}
	for _, key := range params.Indicators {
		covered[key.Normalized()] = true
	}
	out := s.releasesWhere(func(r *models.Release) bool {
		ind, ok := s.indicators[r.IndicatorID]
		if !ok || r.Actual != nil || r.ReleaseAt.After(params.Now) {
			return false
		}
		return covered[repository.IndicatorKey{Name: ind.Name, CountryCode: ind.CountryCode}.Normalized()]
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReleaseAt.After(out[j].ReleaseAt) })
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) ListReleases(ctx context.Context, params repository.ListReleasesParams) ([]models.Release, error) {
	return s.releasesWhere(func(r *models.Release) bool {
		return params.IndicatorID == nil || r.IndicatorID == *params.IndicatorID
	}), nil
}

func (s *stubRepo) CountReleases(ctx context.Context, params repository.ListReleasesParams) (int64, error) {
	items, _ := s.ListReleases(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) SaveReleaseActual(ctx context.Context, item *models.Release, prevActual *string) error {
	rel, ok := s.releases[item.ID]
	if !ok {
		return repository.ErrStaleWrite
	}
	if (prevActual == nil) != (rel.Actual == nil) || (prevActual != nil && *prevActual != *rel.Actual) {
		return repository.ErrStaleWrite
	}
	rel.Actual = copyString(item.Actual)
	rel.Revised = copyString(item.Revised)
	rel.RevisionHistory = append([]byte(nil), item.RevisionHistory...)
	return nil
}

func (s *stubRepo) ReparentReleaseTx(ctx context.Context, tx *gorm.DB, releaseID, indicatorID string) error {
	rel, ok := s.releases[releaseID]
	if !ok {
		return repository.ErrNotFound
	}
	rel.IndicatorID = indicatorID
	return nil
}

func (s *stubRepo) DeleteReleaseTx(ctx context.Context, tx *gorm.DB, releaseID string) error {
	delete(s.releases, releaseID)
	return nil
}

func (s *stubRepo) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if item.ID == "" {
		item.ID = s.nextID("log")
	}
	s.syncLogs = append(s.syncLogs, *item)
	return nil
}

func (s *stubRepo) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	return append([]models.SyncLog(nil), s.syncLogs...), nil
}

func strPtr(s string) *string { return &s }
