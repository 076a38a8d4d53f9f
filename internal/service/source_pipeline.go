package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"macrocal/internal/normalize"
	"macrocal/internal/repository"
)

// Fetcher downloads a source payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SourceResult is the outcome of one source that produced output.
type SourceResult struct {
	Source           string             `json:"source"`
	RowsProcessed    int                `json:"rows_processed"`
	ReleasesFound    int                `json:"releases_found"`
	IndicatorsNew    int                `json:"indicators_created"`
	Inserted         int                `json:"releases_inserted"`
	Updated          int                `json:"releases_updated"`
	Skipped          int                `json:"releases_skipped"`
	Collapsed        int                `json:"collapsed"`
	ActualsSet       int                `json:"actuals_set"`
	Revisions        int                `json:"revisions"`
	ErrorsCount      int                `json:"errors_count"`
	Errors           []string           `json:"errors,omitempty"`
	DeadlineExceeded bool               `json:"deadline_exceeded"`
	Sample           []normalize.Record `json:"sample,omitempty"`
	Duration         time.Duration      `json:"-"`
}

func (r *SourceResult) addError(err error) {
	r.ErrorsCount++
	r.Errors = append(r.Errors, err.Error())
}

// SourcePipeline runs fetch, parse, normalize, resolve and reconcile for one source.
// Rows are handled strictly in source order.
type SourcePipeline struct {
	Store          repository.Repository
	Fetcher        Fetcher
	Normalizer     *normalize.Normalizer
	Reconciler     *ReleaseReconciler
	Revisions      *RevisionTracker
	Logger         *zap.Logger
	SampleSize     int
	BatchSize      int
	UpdateSchedule bool
	// FlushTimeout bounds the final write of rows resolved before the run deadline.
	FlushTimeout time.Duration
}

func (p *SourcePipeline) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if p.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	return p.Fetcher.Fetch(ctx, src.URL)
}

// Run fetches and processes src. An error means the source produced no result.
func (p *SourcePipeline) Run(ctx context.Context, src Source) (SourceResult, error) {
	payload, err := p.Fetch(ctx, src)
	if err != nil {
		return SourceResult{Source: src.Name}, err
	}
	return p.Process(ctx, src, payload)
}

// Process turns a fetched payload into reconciled releases. Document-level parse
// failures are returned as errors; row failures are collected in the result.
func (p *SourcePipeline) Process(ctx context.Context, src Source, payload []byte) (SourceResult, error) {
	started := time.Now()
	result := SourceResult{Source: src.Name}
	if src.Parser == nil {
		return result, fmt.Errorf("source %s has no parser", src.Name)
	}
	parsed, err := src.Parser.Parse(payload)
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", src.Name, err)
	}
	result.ReleasesFound = len(parsed.Records)
	for i := range parsed.Errors {
		result.addError(&parsed.Errors[i])
	}
	result.RowsProcessed = len(parsed.Errors)

	resolver := NewIndicatorResolver(p.Store, src, p.Logger)
	sampleSize := p.SampleSize
	if sampleSize <= 0 {
		sampleSize = 5
	}

	rows := make([]ReleaseRow, 0, len(parsed.Records))
	for _, raw := range parsed.Records {
		if ctx.Err() != nil {
			result.DeadlineExceeded = true
			break
		}
		result.RowsProcessed++
		rec, err := p.Normalizer.Normalize(raw)
		if err != nil {
			result.addError(err)
			continue
		}
		if len(result.Sample) < sampleSize {
			result.Sample = append(result.Sample, rec)
		}
		ind, err := resolver.Resolve(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				result.DeadlineExceeded = true
				break
			}
			var merr *MatchError
			if !errors.As(err, &merr) {
				err = &MatchError{Row: rec.Row, Name: rec.Name, CountryCode: rec.CountryCode, Err: err}
			}
			result.addError(err)
			continue
		}
		rows = append(rows, ReleaseRow{
			Row:         rec.Row,
			IndicatorID: ind.ID,
			ReleaseAt:   rec.ReleaseAt,
			Period:      rec.Period,
			Forecast:    rec.Forecast,
			Previous:    rec.Previous,
			Actual:      rec.Actual,
		})
	}
	result.IndicatorsNew = resolver.Created

	if ctx.Err() != nil {
		result.DeadlineExceeded = true
	}

	// Rows resolved before the deadline are still written.
	writeCtx, cancel := p.writeContext(ctx)
	defer cancel()
	rec, err := p.Reconciler.Reconcile(writeCtx, rows, ReconcileOptions{UpdateSchedule: p.UpdateSchedule, BatchSize: p.BatchSize})
	if err != nil {
		if !isContextErr(err) {
			return result, fmt.Errorf("reconcile %s: %w", src.Name, err)
		}
		result.DeadlineExceeded = true
		result.addError(fmt.Errorf("reconcile %s: %w", src.Name, err))
	}
	if ctx.Err() != nil {
		result.DeadlineExceeded = true
	}
	result.Inserted = rec.Inserted
	result.Updated = rec.Updated
	result.Skipped = rec.Skipped
	result.Collapsed = rec.Collapsed
	for _, cerr := range rec.Errors {
		result.addError(cerr)
	}

	if p.Revisions != nil && !result.DeadlineExceeded {
		p.observeActuals(ctx, CollapseReleaseRows(rows), &result)
	}

	result.Duration = time.Since(started)
	if p.Logger != nil {
		p.Logger.Info("source processed",
			zap.String("source", src.Name),
			zap.Int("found", result.ReleasesFound),
			zap.Int("inserted", result.Inserted),
			zap.Int("updated", result.Updated),
			zap.Int("skipped", result.Skipped),
			zap.Int("errors", result.ErrorsCount),
			zap.Bool("deadline_exceeded", result.DeadlineExceeded),
			zap.Duration("elapsed", result.Duration),
		)
	}
	return result, nil
}

// writeContext detaches the final write from ctx cancellation. Once ctx is done the
// write gets FlushTimeout more before it is cancelled too.
func (p *SourcePipeline) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.FlushTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	writeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var timer *time.Timer
	var mu sync.Mutex
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		timer = time.AfterFunc(timeout, cancel)
		mu.Unlock()
	})
	return writeCtx, func() {
		stop()
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		cancel()
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// observeActuals hands published actual values to the revision tracker.
func (p *SourcePipeline) observeActuals(ctx context.Context, rows []ReleaseRow, result *SourceResult) {
	for _, row := range rows {
		if row.Actual == nil {
			continue
		}
		if ctx.Err() != nil {
			result.DeadlineExceeded = true
			return
		}
		outcome, err := p.Revisions.ObserveAt(ctx, row.IndicatorID, row.ReleaseAt, *row.Actual)
		if err != nil {
			result.addError(fmt.Errorf("row %d: actual: %w", row.Row, err))
			continue
		}
		switch outcome {
		case RevisionSet:
			result.ActualsSet++
		case RevisionRevised:
			result.Revisions++
		}
	}
}

