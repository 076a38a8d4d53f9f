package normalize

import (
	"fmt"
	"strings"
	"time"

	"macrocal/internal/parser"
)

// ValidationError reports a parsed row that is unusable after normalization.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %s", e.Row, e.Field, e.Reason)
}

// Record is a release row in canonical form, ready for indicator matching.
type Record struct {
	Row            int       `json:"row"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
	RawName        string    `json:"raw_name"`
	CountryCode    string    `json:"country_code"`
	Category       string    `json:"category"`
	Impact         string    `json:"impact"`
	ReleaseAt      time.Time `json:"release_at"`
	Period         *string   `json:"period,omitempty"`
	Actual         *string   `json:"actual,omitempty"`
	Forecast       *string   `json:"forecast,omitempty"`
	Previous       *string   `json:"previous,omitempty"`
}

type Normalizer struct {
	Categorizer *Categorizer
}

func (n *Normalizer) Normalize(raw parser.RawReleaseRecord) (Record, error) {
	name := CanonicalName(raw.RawName)
	if name == "" {
		return Record{}, &ValidationError{Row: raw.Row, Field: "name", Reason: "empty after normalization"}
	}
	country := CurrencyForCountry(raw.CountryRaw)
	if country == "" {
		return Record{}, &ValidationError{Row: raw.Row, Field: "country", Reason: "empty after normalization"}
	}
	if raw.ReleaseAt.IsZero() {
		return Record{}, &ValidationError{Row: raw.Row, Field: "release_at", Reason: "missing"}
	}

	var categorizer *Categorizer
	if n != nil {
		categorizer = n.Categorizer
	}
	return Record{
		Row:            raw.Row,
		Name:           name,
		NormalizedName: name,
		RawName:        strings.Join(strings.Fields(raw.RawName), " "),
		CountryCode:    country,
		Category:       categorizer.InferCategory(raw.CategoryHint, name),
		Impact:         NormalizeImpact(raw.ImpactRaw),
		ReleaseAt:      raw.ReleaseAt.UTC(),
		Period:         optional(raw.Period),
		Actual:         optional(raw.ActualRaw),
		Forecast:       optional(raw.ForecastRaw),
		Previous:       optional(raw.PreviousRaw),
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
