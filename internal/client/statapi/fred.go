package statapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type FRED struct {
	baseClient
	apiKey string
}

func NewFRED(httpClient *http.Client, host, apiKey string, timeout time.Duration) *FRED {
	return &FRED{
		baseClient: newBaseClient("fred", httpClient, host, "https://api.stlouisfed.org", timeout),
		apiKey:     apiKey,
	}
}

func (c *FRED) Name() string { return "fred" }

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Latest returns the newest observation. FRED publishes "." for missing values,
// which are skipped.
func (c *FRED) Latest(ctx context.Context, seriesID string) (string, bool, error) {
	if seriesID == "" {
		return "", false, fmt.Errorf("series_id is required")
	}
	query := url.Values{}
	query.Set("series_id", seriesID)
	query.Set("api_key", c.apiKey)
	query.Set("file_type", "json")
	query.Set("sort_order", "desc")
	query.Set("limit", "5")
	body, err := c.doRequest(ctx, "/fred/series/observations", query)
	if err != nil {
		return "", false, err
	}
	var out fredObservations
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false, fmt.Errorf("decode fred response: %w", err)
	}
	for _, obs := range out.Observations {
		v := strings.TrimSpace(obs.Value)
		if v != "" && v != "." {
			return v, true, nil
		}
	}
	return "", false, nil
}
