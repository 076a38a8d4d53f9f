package service

import (
	"context"
	"testing"

	"macrocal/internal/config"
	"macrocal/internal/models"
)

func TestDataSourceService_EnsureDefaultsAndEnabledSources(t *testing.T) {
	repo := newStubRepo()
	svc := &DataSourceService{
		Store:   repo,
		Sources: config.DefaultSources(),
		StatAPIs: config.StatAPIsConfig{
			FRED: config.StatAPIConfig{Enabled: true, BaseURL: "https://fred.example", APIKey: "secret"},
		},
	}

	items, err := svc.EnsureDefaults(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(items) != 5 {
		t.Fatalf("len=%d want=5", len(items))
	}
	for _, item := range items {
		if item.Name == "fred" && string(item.AuthConfig) != `{"api_key_configured":true}` {
			t.Fatalf("fred auth_config=%s", item.AuthConfig)
		}
	}

	// a second pass updates by name instead of inserting
	if _, err := svc.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(repo.dataSources) != 5 {
		t.Fatalf("data sources=%d want=5", len(repo.dataSources))
	}

	sources, err := svc.EnabledSources(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources=%d want=2 (api kinds are not scrapers)", len(sources))
	}
	if sources[0].Name != "tradingeconomics" || sources[1].Name != "forexfactory" {
		t.Fatalf("order=%s,%s", sources[0].Name, sources[1].Name)
	}
	if !sources[0].CreateIndicators || sources[1].CreateIndicators {
		t.Fatalf("create_indicators=%v,%v", sources[0].CreateIndicators, sources[1].CreateIndicators)
	}
	if sources[0].Parser.Name() != "tradingeconomics" || sources[1].Parser.Name() != "forexfactory" {
		t.Fatalf("parsers=%s,%s", sources[0].Parser.Name(), sources[1].Parser.Name())
	}
}

func TestDataSourceService_DisabledSourceSkipped(t *testing.T) {
	repo := newStubRepo()
	cfgs := config.DefaultSources()
	cfgs[0].Enabled = false
	svc := &DataSourceService{Store: repo, Sources: cfgs}
	if _, err := svc.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	repo.dataSources["ds-orphan"] = &models.DataSource{ID: "ds-orphan", Name: "bloomberg", Kind: models.DataSourceKindScraper, Enabled: true}

	sources, err := svc.EnabledSources(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(sources) != 1 || sources[0].Name != "forexfactory" {
		t.Fatalf("sources=%+v", sources)
	}
}
