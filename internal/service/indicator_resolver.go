package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"macrocal/internal/models"
	"macrocal/internal/normalize"
	"macrocal/internal/repository"
)

var errMatchOnly = errors.New("source may not create indicators")

// IndicatorResolver maps normalized records to Indicator rows for one run.
// The lookup cache lives only as long as the resolver.
type IndicatorResolver struct {
	Store       repository.Repository
	Logger      *zap.Logger
	SourceName  string
	SourceURL   string
	AllowCreate bool

	cache   map[string]*models.Indicator
	Created int
}

func NewIndicatorResolver(store repository.Repository, src Source, logger *zap.Logger) *IndicatorResolver {
	return &IndicatorResolver{
		Store:       store,
		Logger:      logger,
		SourceName:  src.Name,
		SourceURL:   src.URL,
		AllowCreate: src.CreateIndicators,
		cache:       map[string]*models.Indicator{},
	}
}

func (r *IndicatorResolver) Resolve(ctx context.Context, rec normalize.Record) (*models.Indicator, error) {
	key := rec.CountryCode + "|" + rec.NormalizedName
	if ind, ok := r.cache[key]; ok {
		return ind, nil
	}
	ind, err := r.Store.FindIndicator(ctx, rec.CountryCode, rec.NormalizedName)
	if err != nil {
		return nil, err
	}
	if ind == nil {
		if !r.AllowCreate {
			return nil, &MatchError{Row: rec.Row, Name: rec.Name, CountryCode: rec.CountryCode, Err: errMatchOnly}
		}
		ind = &models.Indicator{
			Name:           rec.Name,
			NormalizedName: rec.NormalizedName,
			RawName:        rec.RawName,
			CountryCode:    rec.CountryCode,
			Category:       rec.Category,
			Impact:         rec.Impact,
			SourceName:     r.SourceName,
			SourceURL:      r.SourceURL,
		}
		if err := r.Store.CreateIndicator(ctx, ind); err != nil {
			return nil, err
		}
		r.Created++
		if r.Logger != nil {
			r.Logger.Debug("indicator created",
				zap.String("id", ind.ID),
				zap.String("name", ind.Name),
				zap.String("country", ind.CountryCode),
			)
		}
	}
	if r.cache == nil {
		r.cache = map[string]*models.Indicator{}
	}
	r.cache[key] = ind
	return ind, nil
}
