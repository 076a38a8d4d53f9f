// Package statapi reads the latest published value of a statistical series from
// official data providers (FRED, BLS, ECB).
package statapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotAvailable means the provider answered but has no value for the series yet.
	ErrNotAvailable = errors.New("statapi: value not available")
	// ErrUnmapped means no series is configured for the indicator.
	ErrUnmapped = errors.New("statapi: indicator not mapped to a series")
)

// Provider returns the most recent observation of a series.
type Provider interface {
	Name() string
	Latest(ctx context.Context, seriesID string) (value string, ok bool, err error)
}

type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

type baseClient struct {
	name       string
	host       string
	httpClient *http.Client
}

func newBaseClient(name string, httpClient *http.Client, host, defaultHost string, timeout time.Duration) baseClient {
	if host == "" {
		host = defaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return baseClient{
		name:       name,
		host:       strings.TrimRight(host, "/"),
		httpClient: httpClient,
	}
}

func (c *baseClient) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotAvailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: c.name, Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
