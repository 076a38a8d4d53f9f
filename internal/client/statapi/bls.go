package statapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type BLS struct {
	baseClient
	apiKey string
	now    func() time.Time
}

func NewBLS(httpClient *http.Client, host, apiKey string, timeout time.Duration) *BLS {
	return &BLS{
		baseClient: newBaseClient("bls", httpClient, host, "https://api.bls.gov", timeout),
		apiKey:     apiKey,
		now:        time.Now,
	}
}

func (c *BLS) Name() string { return "bls" }

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Latest queries the current and previous year; BLS lists data newest first.
func (c *BLS) Latest(ctx context.Context, seriesID string) (string, bool, error) {
	if seriesID == "" {
		return "", false, fmt.Errorf("series_id is required")
	}
	endYear := c.now().UTC().Year()
	query := url.Values{}
	if c.apiKey != "" {
		query.Set("registrationkey", c.apiKey)
	}
	query.Set("startyear", strconv.Itoa(endYear-1))
	query.Set("endyear", strconv.Itoa(endYear))
	body, err := c.doRequest(ctx, "/publicAPI/v2/timeseries/data/"+url.PathEscape(seriesID), query)
	if err != nil {
		return "", false, err
	}
	var out blsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false, fmt.Errorf("decode bls response: %w", err)
	}
	if out.Status != "" && out.Status != "REQUEST_SUCCEEDED" {
		return "", false, &APIError{Provider: "bls", Status: http.StatusOK, Body: strings.Join(out.Message, "; ")}
	}
	if len(out.Results.Series) == 0 {
		return "", false, nil
	}
	for _, d := range out.Results.Series[0].Data {
		v := strings.TrimSpace(d.Value)
		if v != "" && v != "-" {
			return v, true, nil
		}
	}
	return "", false, nil
}
