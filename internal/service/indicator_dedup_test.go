package service

import (
	"context"
	"testing"
	"time"

	"macrocal/internal/models"
)

func seedRelease(repo *stubRepo, id, indicatorID string, at time.Time, actual *string) {
	repo.releases[id] = &models.Release{ID: id, IndicatorID: indicatorID, ReleaseAt: at, Actual: actual, RevisionHistory: []byte("[]")}
}

func TestIndicatorDedup_MergesAndIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	// Same canonical name "CPI (YoY)" for USD, three spellings; the oldest wins.
	seedIndicator(repo, "b-newer", "USD", "cpi yoy", base.Add(2*time.Hour))
	seedIndicator(repo, "a-oldest", "USD", "Cpi YoY", base)
	seedIndicator(repo, "c-newest", "USD", "CPI (YoY)", base.Add(3*time.Hour))
	seedIndicator(repo, "eur", "EUR", "CPI (YoY)", base)

	t1 := time.Date(2025, 1, 15, 13, 30, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	seedRelease(repo, "r-win", "a-oldest", t1, strPtr("2.9%"))
	seedRelease(repo, "r-dup", "b-newer", t1, nil)
	seedRelease(repo, "r-move", "c-newest", t2, nil)

	svc := &IndicatorDedupService{Store: repo}
	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if first.DuplicateGroups != 1 || first.Merged != 2 {
		t.Fatalf("groups=%d merged=%d want=1/2", first.DuplicateGroups, first.Merged)
	}
	if first.DeletedReleases != 1 || first.Reparented != 1 {
		t.Fatalf("deleted=%d reparented=%d want=1/1", first.DeletedReleases, first.Reparented)
	}
	if _, ok := repo.indicators["a-oldest"]; !ok {
		t.Fatalf("winner removed")
	}
	if len(repo.indicators) != 2 {
		t.Fatalf("indicators=%d want=2", len(repo.indicators))
	}
	if got := repo.indicators["a-oldest"].Name; got != "CPI (YoY)" {
		t.Fatalf("winner name=%q want=CPI (YoY)", got)
	}
	if repo.releases["r-move"].IndicatorID != "a-oldest" {
		t.Fatalf("release not re-parented")
	}
	if _, ok := repo.releases["r-dup"]; ok {
		t.Fatalf("duplicate release kept")
	}

	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if second.Changes() != 0 || second.DuplicateGroups != 0 {
		t.Fatalf("second run changes=%d groups=%d want=0/0", second.Changes(), second.DuplicateGroups)
	}
}

func TestIndicatorDedup_TieBreakOnID(t *testing.T) {
	repo := newStubRepo()
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seedIndicator(repo, "id-b", "GBP", "GDP Growth Rate (QoQ)", at)
	seedIndicator(repo, "id-a", "GBP", "gdp growth rate qoq", at)

	if _, err := (&IndicatorDedupService{Store: repo}).Run(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, ok := repo.indicators["id-a"]; !ok || len(repo.indicators) != 1 {
		t.Fatalf("indicators=%v want only id-a", repo.indicators)
	}
	if repo.indicators["id-a"].Name != "GDP Growth Rate (QoQ)" {
		t.Fatalf("name=%q", repo.indicators["id-a"].Name)
	}
}

func TestIndicatorDedup_FailedGroupLeftForNextRun(t *testing.T) {
	repo := newStubRepo()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seedIndicator(repo, "w", "JPY", "Tankan Large Manufacturers Index", base)
	seedIndicator(repo, "l", "JPY", "tankan large manufacturers index", base.Add(time.Hour))
	seedIndicator(repo, "x", "AUD", "employment change", base)
	seedRelease(repo, "r1", "l", base.AddDate(0, 1, 0), nil)
	repo.failDeleteIndicator["l"] = true

	svc := &IndicatorDedupService{Store: repo}
	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Unresolved != 1 || len(res.Errors) != 1 {
		t.Fatalf("unresolved=%d errors=%v", res.Unresolved, res.Errors)
	}
	if repo.releases["r1"].IndicatorID != "l" {
		t.Fatalf("failed merge must roll back the re-parent")
	}
	if repo.indicators["x"].Name != "Employment Change" {
		t.Fatalf("other groups still processed, name=%q", repo.indicators["x"].Name)
	}

	delete(repo.failDeleteIndicator, "l")
	res, err = svc.Run(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if res.Merged != 1 || res.Unresolved != 0 {
		t.Fatalf("merged=%d unresolved=%d want=1/0", res.Merged, res.Unresolved)
	}
}
