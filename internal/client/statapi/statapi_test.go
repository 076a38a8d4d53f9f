package statapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"macrocal/internal/cache"
)

func TestFRED_LatestSkipsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series/observations" {
			t.Errorf("path=%s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("series_id") != "CPIAUCSL" || q.Get("api_key") != "k" || q.Get("sort_order") != "desc" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"observations":[{"date":"2025-01-01","value":"."},{"date":"2024-12-01","value":"315.605"}]}`))
	}))
	defer srv.Close()

	c := NewFRED(srv.Client(), srv.URL, "k", time.Second)
	v, ok, err := c.Latest(context.Background(), "CPIAUCSL")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if v != "315.605" {
		t.Fatalf("v=%q want=315.605", v)
	}
}

func TestBLS_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/publicAPI/v2/timeseries/data/LNS14000000" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("startyear") != "2024" || r.URL.Query().Get("endyear") != "2025" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"REQUEST_SUCCEEDED","Results":{"series":[{"seriesID":"LNS14000000","data":[{"year":"2025","period":"M01","value":"4.0"},{"year":"2024","period":"M12","value":"4.1"}]}]}}`))
	}))
	defer srv.Close()

	c := NewBLS(srv.Client(), srv.URL, "", time.Second)
	c.now = func() time.Time { return time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC) }
	v, ok, err := c.Latest(context.Background(), "LNS14000000")
	if err != nil || !ok || v != "4.0" {
		t.Fatalf("v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestBLS_RequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"REQUEST_NOT_PROCESSED","message":["daily threshold reached"]}`))
	}))
	defer srv.Close()

	_, _, err := NewBLS(srv.Client(), srv.URL, "", time.Second).Latest(context.Background(), "X")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err=%v want APIError", err)
	}
}

func TestECB_Latest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/service/data/ICP/M.U2.N.000000.4.ANR" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "jsondata" {
			t.Errorf("query=%s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"dataSets":[{"series":{"0:0:0:0:0:0":{"observations":{"0":[2.2,0,0],"1":[2.4,0,0]}}}}]}`))
	}))
	defer srv.Close()

	v, ok, err := NewECB(srv.Client(), srv.URL, time.Second).Latest(context.Background(), "ICP/M.U2.N.000000.4.ANR")
	if err != nil || !ok || v != "2.4" {
		t.Fatalf("v=%q ok=%v err=%v", v, ok, err)
	}
	if _, _, err := NewECB(srv.Client(), srv.URL, time.Second).Latest(context.Background(), "bad"); err == nil {
		t.Fatalf("expected error for malformed id")
	}
}

type stubProvider struct {
	name  string
	value string
	ok    bool
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Latest(ctx context.Context, seriesID string) (string, bool, error) {
	s.calls++
	return s.value, s.ok, s.err
}

func TestRouter_FallsThroughProviders(t *testing.T) {
	fred := &stubProvider{name: "fred", err: &APIError{Provider: "fred", Status: 500}}
	bls := &stubProvider{name: "bls", value: "4.1", ok: true}
	r := NewRouter(nil, fred, bls)

	v, ref, err := r.Lookup(context.Background(), "Unemployment Rate", "USD")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if v != "4.1" || ref.Provider != "bls" || ref.SeriesID != "LNS14000000" {
		t.Fatalf("v=%q ref=%+v", v, ref)
	}
	if fred.calls != 1 {
		t.Fatalf("fred calls=%d want=1", fred.calls)
	}
}

func TestRouter_UnmappedAndUnavailable(t *testing.T) {
	r := NewRouter(nil, &stubProvider{name: "fred"})
	if _, _, err := r.Lookup(context.Background(), "Retail Sales", "USD"); !errors.Is(err, ErrUnmapped) {
		t.Fatalf("err=%v want=%v", err, ErrUnmapped)
	}
	// HICP is mapped to ECB only, which is not configured here.
	if r.Mapped("HICP", "EUR") {
		t.Fatalf("expected unmapped without ecb provider")
	}
	if _, _, err := r.Lookup(context.Background(), "cpi", "usd"); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("err=%v want=%v", err, ErrNotAvailable)
	}
}

func TestRouter_CoveredOnlyListsConfiguredProviders(t *testing.T) {
	r := NewRouter(nil, &stubProvider{name: "ecb"})
	got := r.Covered()
	want := [][2]string{{"hicp", "EUR"}, {"inflation rate (yoy)", "EUR"}}
	if len(got) != len(want) {
		t.Fatalf("covered=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("covered[%d]=%v want=%v", i, got[i], want[i])
		}
	}
	if got := NewRouter(nil).Covered(); len(got) != 0 {
		t.Fatalf("covered=%v want none without providers", got)
	}
}

func TestCachedProvider(t *testing.T) {
	inner := &stubProvider{name: "fred", value: "315.6", ok: true}
	mem := cache.NewMemoryStore(0)
	p := NewCachedProvider(inner, cache.Namespace(mem, "statapi"), time.Minute)
	for i := 0; i < 3; i++ {
		v, ok, err := p.Latest(context.Background(), "CPIAUCSL")
		if err != nil || !ok || v != "315.6" {
			t.Fatalf("v=%q ok=%v err=%v", v, ok, err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls=%d want=1", inner.calls)
	}
	if _, ok, _ := mem.Get(context.Background(), "statapi:fred:CPIAUCSL"); !ok {
		t.Fatalf("expected value under statapi:fred:CPIAUCSL")
	}
}
