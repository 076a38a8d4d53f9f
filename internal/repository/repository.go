package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"macrocal/internal/models"
)

var (
	ErrNotFound   = errors.New("repository: not found")
	ErrStaleWrite = errors.New("repository: row changed since it was read")
)

// Repository is the persistence capability consumed by the ingestion pipeline.
// Methods with a Tx suffix run inside the transaction opened by InTx; a nil tx
// falls back to the store's own connection.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// data sources
	UpsertDataSource(ctx context.Context, item *models.DataSource) error
	GetDataSourceByName(ctx context.Context, name string) (*models.DataSource, error)
	ListDataSources(ctx context.Context, enabledOnly bool) ([]models.DataSource, error)
	TouchDataSourceSync(ctx context.Context, id string, at time.Time) error

	// indicators
	FindIndicator(ctx context.Context, countryCode, normalizedName string) (*models.Indicator, error)
	CreateIndicator(ctx context.Context, item *models.Indicator) error
	ListAllIndicators(ctx context.Context) ([]models.Indicator, error)
	ListIndicators(ctx context.Context, params ListIndicatorsParams) ([]models.Indicator, error)
	CountIndicators(ctx context.Context, params ListIndicatorsParams) (int64, error)
	RenameIndicatorTx(ctx context.Context, tx *gorm.DB, id, name string) error
	DeleteIndicatorTx(ctx context.Context, tx *gorm.DB, id string) error

	// releases
	InsertReleases(ctx context.Context, items []models.Release, batchSize int) (int64, error)
	UpsertReleaseSchedules(ctx context.Context, items []models.Release) (inserted int64, updated int64, err error)
	GetRelease(ctx context.Context, id string) (*models.Release, error)
	GetReleaseByKey(ctx context.Context, indicatorID string, releaseAt time.Time) (*models.Release, error)
	ListReleasesByIndicatorTx(ctx context.Context, tx *gorm.DB, indicatorID string) ([]models.Release, error)
	// ListDueReleases returns past releases without an actual, newest first, restricted to
	// the indicators in params.Indicators. An empty key set yields no rows.
	ListDueReleases(ctx context.Context, params DueReleasesParams) ([]models.Release, error)
	ListReleases(ctx context.Context, params ListReleasesParams) ([]models.Release, error)
	CountReleases(ctx context.Context, params ListReleasesParams) (int64, error)
	// SaveReleaseActual writes actual/revised/revision_history only if the stored actual still
	// equals prevActual; otherwise ErrStaleWrite is returned.
	SaveReleaseActual(ctx context.Context, item *models.Release, prevActual *string) error
	ReparentReleaseTx(ctx context.Context, tx *gorm.DB, releaseID, indicatorID string) error
	DeleteReleaseTx(ctx context.Context, tx *gorm.DB, releaseID string) error

	// sync logs
	InsertSyncLog(ctx context.Context, item *models.SyncLog) error
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)
}

type ListIndicatorsParams struct {
	Limit       int
	Offset      int
	CountryCode *string
	Category    *string
	Impact      *string
	Name        *string
	OrderBy     string
	Asc         *bool
}

// IndicatorKey identifies an indicator by display name and country code.
type IndicatorKey struct {
	Name        string
	CountryCode string
}

// Normalized lowercases the name with whitespace collapsed and uppercases the country.
func (k IndicatorKey) Normalized() IndicatorKey {
	return IndicatorKey{
		Name:        strings.ToLower(strings.Join(strings.Fields(k.Name), " ")),
		CountryCode: strings.ToUpper(strings.TrimSpace(k.CountryCode)),
	}
}

type DueReleasesParams struct {
	Now        time.Time
	Limit      int
	Indicators []IndicatorKey
}

type ListReleasesParams struct {
	Limit       int
	Offset      int
	IndicatorID *string
	From        *time.Time
	To          *time.Time
	HasActual   *bool
	OrderBy     string
	Asc         *bool
}

type ListSyncLogsParams struct {
	Limit        int
	Offset       int
	DataSourceID *string
	Status       *string
}
