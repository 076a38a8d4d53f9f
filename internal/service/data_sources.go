package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"macrocal/internal/config"
	"macrocal/internal/models"
	"macrocal/internal/parser"
	"macrocal/internal/repository"
)

// Source is an enabled calendar source ready to run.
type Source struct {
	DataSourceID     string
	Name             string
	URL              string
	Priority         int
	CreateIndicators bool
	Parser           parser.Parser
}

// DataSourceService keeps data_sources in step with configuration and builds
// runnable sources from the enabled rows.
type DataSourceService struct {
	Store    repository.Repository
	Logger   *zap.Logger
	Sources  []config.SourceConfig
	StatAPIs config.StatAPIsConfig
	Now      func() time.Time
}

// EnsureDefaults upserts every configured scraper and statistics API by name.
func (s *DataSourceService) EnsureDefaults(ctx context.Context) ([]models.DataSource, error) {
	var out []models.DataSource
	for _, cfg := range s.Sources {
		item := models.DataSource{
			Name:       strings.TrimSpace(cfg.Name),
			Kind:       models.DataSourceKindScraper,
			BaseURL:    cfg.URL,
			AuthConfig: datatypes.JSON([]byte("{}")),
			Enabled:    cfg.Enabled,
			Priority:   cfg.Priority,
		}
		if err := s.Store.UpsertDataSource(ctx, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	apis := []struct {
		name string
		cfg  config.StatAPIConfig
	}{
		{"fred", s.StatAPIs.FRED},
		{"bls", s.StatAPIs.BLS},
		{"ecb", s.StatAPIs.ECB},
	}
	for i, api := range apis {
		// API keys stay in configuration; auth_config only records whether one is set.
		auth := `{"api_key_configured":false}`
		if api.cfg.APIKey != "" {
			auth = `{"api_key_configured":true}`
		}
		item := models.DataSource{
			Name:       api.name,
			Kind:       models.DataSourceKindAPI,
			BaseURL:    api.cfg.BaseURL,
			AuthConfig: datatypes.JSON([]byte(auth)),
			Enabled:    api.cfg.Enabled,
			Priority:   1000 + i,
		}
		if err := s.Store.UpsertDataSource(ctx, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if s.Logger != nil {
		s.Logger.Info("data sources ensured", zap.Int("count", len(out)))
	}
	return out, nil
}

// EnabledSources returns the enabled scraper sources in priority order. Rows without
// a configured parser are skipped.
func (s *DataSourceService) EnabledSources(ctx context.Context) ([]Source, error) {
	rows, err := s.Store.ListDataSources(ctx, true)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]config.SourceConfig, len(s.Sources))
	for _, cfg := range s.Sources {
		byName[strings.ToLower(strings.TrimSpace(cfg.Name))] = cfg
	}
	var out []Source
	for _, row := range rows {
		if row.Kind != models.DataSourceKindScraper {
			continue
		}
		cfg, ok := byName[strings.ToLower(row.Name)]
		if !ok {
			if s.Logger != nil {
				s.Logger.Warn("enabled data source has no parser configured", zap.String("source", row.Name))
			}
			continue
		}
		p, err := parser.New(cfg.Parser, s.Now)
		if err != nil {
			return nil, err
		}
		url := row.BaseURL
		if url == "" {
			url = cfg.URL
		}
		out = append(out, Source{
			DataSourceID:     row.ID,
			Name:             row.Name,
			URL:              url,
			Priority:         row.Priority,
			CreateIndicators: cfg.CreateIndicators,
			Parser:           p,
		})
	}
	return out, nil
}
