package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"macrocal/internal/models"
	"macrocal/internal/normalize"
	"macrocal/internal/repository"
)

// SourceLister yields the enabled sources in priority order.
type SourceLister interface {
	EnabledSources(ctx context.Context) ([]Source, error)
}

type RunResult struct {
	Success          bool               `json:"success"`
	Status           string             `json:"status"`
	Source           string             `json:"source,omitempty"`
	Fallback         bool               `json:"fallback"`
	Attempted        []string           `json:"attempted"`
	ReleasesFound    int                `json:"releases_found"`
	ReleasesInserted int                `json:"releases_inserted"`
	ReleasesUpdated  int                `json:"releases_updated"`
	ReleasesSkipped  int                `json:"releases_skipped"`
	ErrorsCount      int                `json:"errors_count"`
	Errors           []string           `json:"errors,omitempty"`
	DeadlineExceeded bool               `json:"deadline_exceeded"`
	DurationMS       int64              `json:"duration_ms"`
	Sample           []normalize.Record `json:"sample,omitempty"`
	SyncLogID        string             `json:"sync_log_id,omitempty"`
}

// SyncOrchestrator runs sources in priority order until one produces a result and
// records exactly one SyncLog per run.
type SyncOrchestrator struct {
	Store    repository.Repository
	Sources  SourceLister
	Pipeline *SourcePipeline
	Logger   *zap.Logger
	Recorder Recorder
	Deadline time.Duration
	// Prefetch downloads every source concurrently before processing them in order.
	Prefetch bool
	ErrorCap int
	Now      func() time.Time
}

func (o *SyncOrchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *SyncOrchestrator) Run(ctx context.Context) (RunResult, error) {
	sources, err := o.Sources.EnabledSources(ctx)
	if err != nil {
		return RunResult{Status: models.SyncStatusFailed}, err
	}
	if len(sources) == 0 {
		result := RunResult{Status: models.SyncStatusFailed, ErrorsCount: 1, Errors: []string{ErrNoSources.Error()}}
		result.SyncLogID = o.writeLog(ctx, "", result, 0, o.now())
		recorderOrNop(o.Recorder).SyncFinished("none", result.Status, 0, 0, 1, 0)
		return result, ErrNoSources
	}
	return o.run(ctx, sources)
}

// RunSource runs one named source with the same logging semantics as Run.
func (o *SyncOrchestrator) RunSource(ctx context.Context, name string) (RunResult, error) {
	sources, err := o.Sources.EnabledSources(ctx)
	if err != nil {
		return RunResult{Status: models.SyncStatusFailed}, err
	}
	for _, src := range sources {
		if strings.EqualFold(src.Name, strings.TrimSpace(name)) {
			return o.run(ctx, []Source{src})
		}
	}
	return RunResult{Status: models.SyncStatusFailed}, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

type fetched struct {
	payload []byte
	err     error
}

func (o *SyncOrchestrator) run(ctx context.Context, sources []Source) (RunResult, error) {
	started := o.now()
	clock := time.Now()
	runCtx := ctx
	if o.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.Deadline)
		defer cancel()
	}

	var prefetched []fetched
	if o.Prefetch && len(sources) > 1 {
		prefetched = o.prefetch(runCtx, sources)
	}

	result := RunResult{}
	var failures []string
	for i, src := range sources {
		if i > 0 && runCtx.Err() != nil {
			failures = append(failures, fmt.Sprintf("%s: not attempted: %v", src.Name, runCtx.Err()))
			break
		}
		result.Attempted = append(result.Attempted, src.Name)
		var payload []byte
		var err error
		if prefetched != nil {
			payload, err = prefetched[i].payload, prefetched[i].err
		} else {
			payload, err = o.Pipeline.Fetch(runCtx, src)
		}
		var out SourceResult
		if err == nil {
			out, err = o.Pipeline.Process(runCtx, src, payload)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", src.Name, err))
			if o.Logger != nil {
				o.Logger.Warn("source failed", zap.String("source", src.Name), zap.Int("priority", src.Priority), zap.Error(err))
			}
			continue
		}

		result.Success = true
		result.Source = src.Name
		result.Fallback = i > 0
		result.ReleasesFound = out.ReleasesFound
		result.ReleasesInserted = out.Inserted
		result.ReleasesUpdated = out.Updated
		result.ReleasesSkipped = out.Skipped
		result.ErrorsCount = out.ErrorsCount
		result.Errors = o.capErrors(out.Errors)
		result.DeadlineExceeded = out.DeadlineExceeded
		result.Sample = out.Sample
		result.Status = models.SyncStatusSuccess
		if out.ErrorsCount > 0 || out.DeadlineExceeded {
			result.Status = models.SyncStatusPartial
		}
		result.DurationMS = time.Since(clock).Milliseconds()

		logID := o.writeLog(ctx, src.DataSourceID, result, out.RowsProcessed, started)
		result.SyncLogID = logID
		o.touch(ctx, src.DataSourceID)
		recorderOrNop(o.Recorder).SyncFinished(src.Name, result.Status, out.RowsProcessed, out.Inserted, out.ErrorsCount, time.Since(clock))
		return result, nil
	}

	result.Status = models.SyncStatusFailed
	result.ErrorsCount = len(failures)
	result.Errors = o.capErrors(failures)
	result.DeadlineExceeded = runCtx.Err() != nil
	result.DurationMS = time.Since(clock).Milliseconds()
	primary := sources[0]
	result.SyncLogID = o.writeLog(ctx, primary.DataSourceID, result, 0, started)
	recorderOrNop(o.Recorder).SyncFinished(primary.Name, result.Status, 0, 0, len(failures), time.Since(clock))
	return result, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(failures, "; "))
}

func (o *SyncOrchestrator) prefetch(ctx context.Context, sources []Source) []fetched {
	out := make([]fetched, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			payload, err := o.Pipeline.Fetch(ctx, src)
			out[i] = fetched{payload: payload, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o *SyncOrchestrator) capErrors(errs []string) []string {
	limit := o.ErrorCap
	if limit <= 0 {
		limit = 10
	}
	if len(errs) <= limit {
		return errs
	}
	return append([]string(nil), errs[:limit]...)
}

// writeLog persists the run outcome on a context detached from the run deadline.
func (o *SyncOrchestrator) writeLog(ctx context.Context, dataSourceID string, result RunResult, rows int, started time.Time) string {
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	metadata := map[string]any{
		"duration_ms":       result.DurationMS,
		"source":            result.Source,
		"fallback":          result.Fallback,
		"attempted":         result.Attempted,
		"releases_found":    result.ReleasesFound,
		"releases_inserted": result.ReleasesInserted,
		"releases_updated":  result.ReleasesUpdated,
		"releases_skipped":  result.ReleasesSkipped,
		"deadline_exceeded": result.DeadlineExceeded,
		"errors":            result.Errors,
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		payload = []byte("{}")
	}
	completed := o.now()
	entry := &models.SyncLog{
		Status:           result.Status,
		RecordsProcessed: rows,
		ErrorsCount:      result.ErrorsCount,
		Metadata:         datatypes.JSON(payload),
		StartedAt:        started,
		CompletedAt:      &completed,
	}
	if dataSourceID != "" {
		id := dataSourceID
		entry.DataSourceID = &id
	}
	if err := o.Store.InsertSyncLog(logCtx, entry); err != nil {
		if o.Logger != nil {
			o.Logger.Error("sync log write failed", zap.String("status", result.Status), zap.Error(err))
		}
		return ""
	}
	return entry.ID
}

func (o *SyncOrchestrator) touch(ctx context.Context, dataSourceID string) {
	if dataSourceID == "" {
		return
	}
	touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.Store.TouchDataSourceSync(touchCtx, dataSourceID, o.now()); err != nil && o.Logger != nil {
		o.Logger.Warn("update last_sync_at failed", zap.String("data_source_id", dataSourceID), zap.Error(err))
	}
}
