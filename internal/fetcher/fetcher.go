package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent    = "macrocal/1.0 (+calendar-sync)"
	DefaultMaxBodyBytes = 16 << 20
	maxErrorBody        = 512
)

// NetworkError reports a fetch that failed after all permitted attempts.
// Status is zero for transport failures and timeouts.
type NetworkError struct {
	URL      string
	Status   int
	Body     string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s): %s", e.URL, e.Status, e.Attempts, e.Body)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed: timeouts, transport errors and 5xx.
func (e *NetworkError) Retryable() bool {
	if e.Status != 0 {
		return e.Status >= 500
	}
	return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, ErrBodyTooLarge)
}

type Config struct {
	UserAgent     string
	Timeout       time.Duration
	MaxRetries    int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	RatePerSecond float64
	Burst         int
	// MaxBodyBytes rejects larger responses instead of truncating them.
	MaxBodyBytes int64
}

type Fetcher struct {
	httpClient *http.Client
	cfg        Config
	limiter    *rate.Limiter
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(httpClient *http.Client, cfg Config, logger *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		httpClient: httpClient,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     logger,
		sleep:      sleepWithContext,
	}
}

// Fetch returns the response body of url. Failures are reported as *NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	attempts := f.cfg.MaxRetries + 1
	var lastErr *NetworkError
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: url, Attempts: attempt - 1, Err: err}
		}
		body, err := f.once(ctx, url)
		if err == nil {
			return body, nil
		}
		err.Attempts = attempt
		lastErr = err
		if !err.Retryable() || ctx.Err() != nil || attempt == attempts {
			break
		}
		backoff := f.backoff(attempt)
		f.logger.Debug("fetch retry",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := f.sleep(ctx, backoff); err != nil {
			lastErr.Err = err
			break
		}
	}
	return nil, lastErr
}

func (f *Fetcher) once(ctx context.Context, url string) ([]byte, *NetworkError) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: classify(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("failed to read response: %w", classify(err))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &NetworkError{URL: url, Status: resp.StatusCode, Body: snippet}
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, f.cfg.MaxBodyBytes)}
	}
	return body, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	d := f.cfg.BaseBackoff << (attempt - 1)
	if d <= 0 || d > f.cfg.MaxBackoff {
		return f.cfg.MaxBackoff
	}
	return d
}

var (
	ErrTimeout      = errors.New("fetch timeout")
	ErrBodyTooLarge = errors.New("response body too large")
)

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
