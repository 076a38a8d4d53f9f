package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"macrocal/internal/models"
	"macrocal/internal/repository"
)

// ReleaseRow is a schedule row already resolved to an indicator.
type ReleaseRow struct {
	Row         int
	IndicatorID string
	ReleaseAt   time.Time
	Period      *string
	Forecast    *string
	Previous    *string
	Actual      *string
}

const defaultReleaseBatch = 200

type ReconcileOptions struct {
	// UpdateSchedule refreshes period/forecast/previous on existing keys instead of skipping them.
	UpdateSchedule bool
	BatchSize      int
}

type ReconcileResult struct {
	Received  int     `json:"received"`
	Collapsed int     `json:"collapsed"`
	Inserted  int     `json:"inserted"`
	Updated   int     `json:"updated"`
	Skipped   int     `json:"skipped"`
	Conflicts int     `json:"conflicts"`
	Errors    []error `json:"-"`
}

// ReleaseReconciler merges schedule rows into the release table keyed by
// (indicator_id, release_at). It never writes actual values.
type ReleaseReconciler struct {
	Store  repository.Repository
	Logger *zap.Logger
}

func (r *ReleaseReconciler) Reconcile(ctx context.Context, rows []ReleaseRow, opts ReconcileOptions) (ReconcileResult, error) {
	result := ReconcileResult{Received: len(rows)}
	unique := CollapseReleaseRows(rows)
	result.Collapsed = len(rows) - len(unique)
	if len(unique) == 0 {
		return result, nil
	}

	items := make([]models.Release, 0, len(unique))
	for _, row := range unique {
		items = append(items, releaseFromRow(row))
	}

	size := opts.BatchSize
	if size <= 0 {
		size = defaultReleaseBatch
	}
	// Batches commit independently; only a rejected batch is replayed row by row.
	done := 0
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		inserted, updated, err := r.write(ctx, batch, opts)
		if err == nil {
			result.Inserted += inserted
			result.Updated += updated
			done = end
			continue
		}
		if ctx.Err() != nil {
			result.settle(done)
			return result, ctx.Err()
		}
		if r.Logger != nil {
			r.Logger.Warn("release batch rejected, retrying row by row", zap.Int("rows", len(batch)), zap.Error(err))
		}
		if err := r.reconcileRows(ctx, batch, opts, &result); err != nil {
			result.settle(done)
			return result, err
		}
		done = end
	}

	result.settle(len(unique))
	return result, nil
}

func (r *ReleaseReconciler) write(ctx context.Context, batch []models.Release, opts ReconcileOptions) (int, int, error) {
	if opts.UpdateSchedule {
		inserted, updated, err := r.Store.UpsertReleaseSchedules(ctx, batch)
		return int(inserted), int(updated), err
	}
	inserted, err := r.Store.InsertReleases(ctx, batch, len(batch))
	return int(inserted), 0, err
}

// settle derives Skipped from the attempted keys that were neither written nor rejected.
func (r *ReconcileResult) settle(attempted int) {
	r.Skipped = attempted - r.Inserted - r.Updated - r.Conflicts
	if r.Skipped < 0 {
		r.Skipped = 0
	}
}

// reconcileRows isolates the rows that make a batch fail.
func (r *ReleaseReconciler) reconcileRows(ctx context.Context, items []models.Release, opts ReconcileOptions, result *ReconcileResult) error {
	for i := range items {
		item := items[i]
		inserted, updated, err := r.write(ctx, []models.Release{item}, opts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.Conflicts++
			result.Errors = append(result.Errors, &ConflictError{IndicatorID: item.IndicatorID, ReleaseAt: item.ReleaseAt, Err: err})
			continue
		}
		result.Inserted += inserted
		result.Updated += updated
	}
	return nil
}

// CollapseReleaseRows keeps one row per (indicator_id, release_at). The last row
// seen for a key wins; the key keeps the position of its first occurrence.
func CollapseReleaseRows(rows []ReleaseRow) []ReleaseRow {
	index := make(map[string]int, len(rows))
	out := make([]ReleaseRow, 0, len(rows))
	for _, row := range rows {
		key := releaseKey(row.IndicatorID, row.ReleaseAt)
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

func releaseKey(indicatorID string, at time.Time) string {
	return indicatorID + "|" + at.UTC().Format(time.RFC3339Nano)
}

func releaseFromRow(row ReleaseRow) models.Release {
	return models.Release{
		IndicatorID: row.IndicatorID,
		ReleaseAt:   row.ReleaseAt.UTC(),
		Period:      row.Period,
		Forecast:    row.Forecast,
		Previous:    row.Previous,
	}
}
