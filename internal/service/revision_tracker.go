package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"macrocal/internal/client/statapi"
	"macrocal/internal/models"
	"macrocal/internal/repository"
)

type RevisionOutcome string

const (
	RevisionSet       RevisionOutcome = "set"
	RevisionRevised   RevisionOutcome = "revised"
	RevisionUnchanged RevisionOutcome = "unchanged"
)

// SeriesLookup resolves an indicator to its latest published value.
type SeriesLookup interface {
	Lookup(ctx context.Context, name, country string) (string, statapi.SeriesRef, error)
	// Covered lists the (name, country) pairs Lookup can serve.
	Covered() [][2]string
}

type RevisionResult struct {
	Checked     int      `json:"checked"`
	Set         int      `json:"set"`
	Revised     int      `json:"revised"`
	Unmapped    int      `json:"unmapped"`
	Unavailable int      `json:"unavailable"`
	Errors      []string `json:"errors,omitempty"`
}

// RevisionTracker is the only writer of Release.actual.
type RevisionTracker struct {
	Store     repository.Repository
	Lookup    SeriesLookup
	Logger    *zap.Logger
	Recorder  Recorder
	BatchSize int
	Now       func() time.Time
}

func (t *RevisionTracker) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

// RunOnce fills in actual values for releases that are due and still empty.
func (t *RevisionTracker) RunOnce(ctx context.Context) (RevisionResult, error) {
	var result RevisionResult
	if t.Lookup == nil {
		return result, nil
	}
	batch := t.BatchSize
	if batch <= 0 {
		batch = 50
	}
	covered := t.Lookup.Covered()
	if len(covered) == 0 {
		return result, nil
	}
	keys := make([]repository.IndicatorKey, 0, len(covered))
	for _, c := range covered {
		keys = append(keys, repository.IndicatorKey{Name: c[0], CountryCode: c[1]})
	}
	due, err := t.Store.ListDueReleases(ctx, repository.DueReleasesParams{Now: t.now(), Limit: batch, Indicators: keys})
	if err != nil {
		return result, err
	}
	for i := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rel := &due[i]
		result.Checked++
		if rel.Indicator == nil {
			result.Unmapped++
			continue
		}
		value, ref, err := t.Lookup.Lookup(ctx, rel.Indicator.Name, rel.Indicator.CountryCode)
		switch {
		case errors.Is(err, statapi.ErrUnmapped):
			result.Unmapped++
			continue
		case err != nil:
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Unavailable++
			// A bare ErrNotAvailable only means the figure is not published yet.
			if err != statapi.ErrNotAvailable {
				result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", rel.Indicator.Name, rel.Indicator.CountryCode, err))
			}
			continue
		}
		outcome, err := t.save(ctx, rel, value)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("update %s: %v", rel.ID, err))
			continue
		}
		t.count(&result, outcome)
		if t.Logger != nil && outcome != RevisionUnchanged {
			t.Logger.Info("release actual imported",
				zap.String("release_id", rel.ID),
				zap.String("indicator", rel.Indicator.Name),
				zap.String("provider", ref.Provider),
				zap.String("series", ref.SeriesID),
				zap.String("value", value),
			)
		}
	}
	recorderOrNop(t.Recorder).RevisionsApplied(result.Set, result.Revised)
	return result, nil
}

// Observe applies a value to one release by id.
func (t *RevisionTracker) Observe(ctx context.Context, releaseID, value string) (*models.Release, RevisionOutcome, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, "", fmt.Errorf("value is required")
	}
	rel, err := t.Store.GetRelease(ctx, releaseID)
	if err != nil {
		return nil, "", err
	}
	if rel == nil {
		return nil, "", repository.ErrNotFound
	}
	outcome, err := t.save(ctx, rel, value)
	if err != nil {
		return nil, "", err
	}
	if outcome != RevisionUnchanged {
		result := RevisionResult{}
		t.count(&result, outcome)
		recorderOrNop(t.Recorder).RevisionsApplied(result.Set, result.Revised)
	}
	return rel, outcome, nil
}

// ObserveAt applies a value to the release identified by its natural key. A missing
// release is reported as unchanged.
func (t *RevisionTracker) ObserveAt(ctx context.Context, indicatorID string, releaseAt time.Time, value string) (RevisionOutcome, error) {
	rel, err := t.Store.GetReleaseByKey(ctx, indicatorID, releaseAt)
	if err != nil {
		return "", err
	}
	if rel == nil {
		return RevisionUnchanged, nil
	}
	return t.save(ctx, rel, value)
}

// save writes the observation guarded by the actual value it was computed from,
// re-reading once if another writer got there first.
func (t *RevisionTracker) save(ctx context.Context, rel *models.Release, value string) (RevisionOutcome, error) {
	for attempt := 0; ; attempt++ {
		prev := copyString(rel.Actual)
		outcome, err := ApplyObservation(rel, value, t.now())
		if err != nil || outcome == RevisionUnchanged {
			return outcome, err
		}
		err = t.Store.SaveReleaseActual(ctx, rel, prev)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, repository.ErrStaleWrite) || attempt > 0 {
			return "", err
		}
		fresh, gerr := t.Store.GetRelease(ctx, rel.ID)
		if gerr != nil {
			return "", gerr
		}
		if fresh == nil {
			return "", repository.ErrNotFound
		}
		*rel = *fresh
	}
}

func (t *RevisionTracker) count(result *RevisionResult, outcome RevisionOutcome) {
	switch outcome {
	case RevisionSet:
		result.Set++
	case RevisionRevised:
		result.Revised++
	}
}

// ApplyObservation records observed as the release's actual value. An existing,
// different actual is kept in revision_history and in Revised before being replaced.
func ApplyObservation(rel *models.Release, observed string, at time.Time) (RevisionOutcome, error) {
	observed = strings.TrimSpace(observed)
	if rel == nil || observed == "" {
		return RevisionUnchanged, nil
	}
	if rel.Actual == nil || strings.TrimSpace(*rel.Actual) == "" {
		rel.Actual = &observed
		return RevisionSet, nil
	}
	if SameValue(*rel.Actual, observed) {
		return RevisionUnchanged, nil
	}
	previous := strings.TrimSpace(*rel.Actual)
	if err := rel.AppendRevision(models.RevisionRecord{
		PreviousActual: previous,
		NewActual:      observed,
		RevisedAt:      at.UTC(),
	}); err != nil {
		return "", err
	}
	rel.Revised = &previous
	rel.Actual = &observed
	return RevisionRevised, nil
}

var valuePattern = regexp.MustCompile(`^([+-]?[0-9][0-9,]*(?:\.[0-9]+)?|[+-]?\.[0-9]+)\s*(.*)$`)

// SameValue compares two published values numerically when both parse ("3.20%"
// equals "3.2%"), and as trimmed strings otherwise. Unit suffixes must agree.
func SameValue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	ma, mb := valuePattern.FindStringSubmatch(a), valuePattern.FindStringSubmatch(b)
	if ma == nil || mb == nil {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(ma[2]), strings.TrimSpace(mb[2])) {
		return false
	}
	da, err := decimal.NewFromString(strings.ReplaceAll(ma[1], ",", ""))
	if err != nil {
		return false
	}
	db, err := decimal.NewFromString(strings.ReplaceAll(mb[1], ",", ""))
	if err != nil {
		return false
	}
	return da.Equal(db)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
