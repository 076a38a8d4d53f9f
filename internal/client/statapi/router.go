package statapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SeriesRef names a series at a specific provider.
type SeriesRef struct {
	Provider string
	SeriesID string
}

// DefaultSeries maps (indicator display name, currency) to candidate series, tried in order.
func DefaultSeries() map[string][]SeriesRef {
	return map[string][]SeriesRef{
		seriesKey("CPI", "USD"):               {{"fred", "CPIAUCSL"}},
		seriesKey("Unemployment Rate", "USD"): {{"fred", "UNRATE"}, {"bls", "LNS14000000"}},
		seriesKey("GDP", "USD"):               {{"fred", "GDP"}},
		seriesKey("Nonfarm Payrolls", "USD"):  {{"fred", "PAYEMS"}, {"bls", "CES0000000001"}},
		seriesKey("Non Farm Payrolls", "USD"): {{"fred", "PAYEMS"}, {"bls", "CES0000000001"}},
		seriesKey("Inflation Rate (YoY)", "EUR"): {
			{"ecb", "ICP/M.U2.N.000000.4.ANR"},
		},
		seriesKey("HICP", "EUR"): {{"ecb", "ICP/M.U2.N.000000.4.INX"}},
	}
}

func seriesKey(name, country string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " ")) + "|" + strings.ToUpper(strings.TrimSpace(country))
}

// Router resolves an indicator to its series and asks each configured provider in turn.
type Router struct {
	providers map[string]Provider
	series    map[string][]SeriesRef
}

func NewRouter(series map[string][]SeriesRef, providers ...Provider) *Router {
	if series == nil {
		series = DefaultSeries()
	}
	r := &Router{providers: map[string]Provider{}, series: series}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Covered lists the (name, country) pairs that at least one configured provider can serve,
// in the normalized form used as series keys.
func (r *Router) Covered() [][2]string {
	var out [][2]string
	for key := range r.series {
		name, country, _ := strings.Cut(key, "|")
		if r.Mapped(name, country) {
			out = append(out, [2]string{name, country})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][1] != out[j][1] {
			return out[i][1] < out[j][1]
		}
		return out[i][0] < out[j][0]
	})
	return out
}

// Mapped reports whether any configured provider can serve the indicator.
func (r *Router) Mapped(name, country string) bool {
	for _, ref := range r.series[seriesKey(name, country)] {
		if _, ok := r.providers[ref.Provider]; ok {
			return true
		}
	}
	return false
}

// Lookup returns the latest value for the indicator. ErrUnmapped is returned when no
// configured provider covers it and ErrNotAvailable when none had a value.
func (r *Router) Lookup(ctx context.Context, name, country string) (string, SeriesRef, error) {
	var errs []error
	tried := false
	for _, ref := range r.series[seriesKey(name, country)] {
		p, ok := r.providers[ref.Provider]
		if !ok {
			continue
		}
		tried = true
		value, ok, err := p.Latest(ctx, ref.SeriesID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ref, ctx.Err()
			}
			if !errors.Is(err, ErrNotAvailable) {
				errs = append(errs, fmt.Errorf("%s %s: %w", ref.Provider, ref.SeriesID, err))
			}
			continue
		}
		if ok {
			return value, ref, nil
		}
	}
	if !tried {
		return "", SeriesRef{}, ErrUnmapped
	}
	if len(errs) > 0 {
		return "", SeriesRef{}, fmt.Errorf("%w: %w", ErrNotAvailable, errors.Join(errs...))
	}
	return "", SeriesRef{}, ErrNotAvailable
}
