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

	"github.com/shopspring/decimal"
)

// ECB reads the SDMX data API. Series ids take the form "FLOW/KEY",
// e.g. "ICP/M.U2.N.000000.4.ANR".
type ECB struct {
	baseClient
}

func NewECB(httpClient *http.Client, host string, timeout time.Duration) *ECB {
	return &ECB{baseClient: newBaseClient("ecb", httpClient, host, "https://data-api.ecb.europa.eu", timeout)}
}

func (c *ECB) Name() string { return "ecb" }

type sdmxData struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]*float64 `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
}

func (c *ECB) Latest(ctx context.Context, seriesID string) (string, bool, error) {
	flow, key, found := strings.Cut(seriesID, "/")
	if !found || flow == "" || key == "" {
		return "", false, fmt.Errorf("ecb series id must be FLOW/KEY: %q", seriesID)
	}
	query := url.Values{}
	query.Set("lastNObservations", "1")
	query.Set("format", "jsondata")
	body, err := c.doRequest(ctx, "/service/data/"+url.PathEscape(flow)+"/"+key, query)
	if err != nil {
		return "", false, err
	}
	var out sdmxData
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false, fmt.Errorf("decode ecb response: %w", err)
	}
	if len(out.DataSets) == 0 {
		return "", false, nil
	}

	// Observation keys are time-dimension indexes; the largest is the newest.
	bestIdx := -1
	var best *float64
	for _, series := range out.DataSets[0].Series {
		for k, vals := range series.Observations {
			idx, err := strconv.Atoi(k)
			if err != nil || len(vals) == 0 || vals[0] == nil {
				continue
			}
			if idx > bestIdx {
				bestIdx, best = idx, vals[0]
			}
		}
	}
	if best == nil {
		return "", false, nil
	}
	return decimal.NewFromFloat(*best).String(), true, nil
}
