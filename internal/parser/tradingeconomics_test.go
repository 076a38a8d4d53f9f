package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type teFixtureRow struct {
	date      string
	clock     string
	level     int
	country   string
	name      string
	actual    string
	consensus string
	forecast  string
}

func teRowHTML(r teFixtureRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr data-url="/x" data-event="%s" data-category="">`, strings.ToLower(r.name))
	fmt.Fprintf(&b, `<td class=" %s"><span class="calendar-date-%d">%s</span></td>`, r.date, r.level, r.clock)
	if r.country != "" {
		fmt.Fprintf(&b, `<td><table><tr><td class="calendar-iso">%s</td></tr></table></td>`, r.country)
	} else {
		b.WriteString(`<td></td>`)
	}
	fmt.Fprintf(&b, `<td><a class="calendar-event" href="/x">%s</a> <span class="calendar-reference">DEC</span></td>`, r.name)
	fmt.Fprintf(&b, `<td><span id="actual">%s</span></td><td><span id="previous">2.7%%</span></td>`, r.actual)
	fmt.Fprintf(&b, `<td><a id="consensus">%s</a></td><td><a id="forecast">%s</a></td>`, r.consensus, r.forecast)
	b.WriteString(`</tr>`)
	return b.String()
}

func teDocument(header string, rows ...teFixtureRow) []byte {
	var b strings.Builder
	b.WriteString(`<html><body><table id="calendar">`)
	if header != "" {
		fmt.Fprintf(&b, `<thead><tr><th colspan="4">%s</th><th>Actual</th><th>Previous</th></tr></thead>`, header)
	}
	b.WriteString(`<tbody>`)
	for _, r := range rows {
		b.WriteString(teRowHTML(r))
	}
	b.WriteString(`</tbody></table></body></html>`)
	return []byte(b.String())
}

func TestTradingEconomics_RowIsolation(t *testing.T) {
	payload := teDocument("",
		teFixtureRow{date: "2025-01-13", clock: "08:30 AM", level: 3, country: "US", name: "Inflation Rate YoY", actual: "2.9%"},
		teFixtureRow{date: "2025-01-13", clock: "09:00 AM", level: 1, country: "", name: "Broken Row"},
		teFixtureRow{date: "2025-01-13", clock: "10:00 AM", level: 2, country: "DE", name: "ZEW Economic Sentiment"},
		teFixtureRow{date: "2025-01-14", clock: "01:15 PM", level: 1, country: "GB", name: "Claimant Count Change"},
		teFixtureRow{date: "2025-01-14", clock: "11:45 PM", level: 1, country: "JP", name: "Machinery Orders"},
	)

	res, err := (&TradingEconomics{}).Parse(payload)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Records) != 4 {
		t.Fatalf("records=%d want=4", len(res.Records))
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors=%d want=1", len(res.Errors))
	}
	if res.Errors[0].Row != 2 {
		t.Fatalf("error row=%d want=2", res.Errors[0].Row)
	}
	want := []int{1, 3, 4, 5}
	for i, rec := range res.Records {
		if rec.Row != want[i] {
			t.Fatalf("record %d row=%d want=%d", i, rec.Row, want[i])
		}
	}
}

func TestTradingEconomics_DateCursorInheritance(t *testing.T) {
	payload := teDocument("Monday January 13 2025",
		teFixtureRow{clock: "08:30 AM", level: 3, country: "US", name: "CPI"},
		teFixtureRow{date: "2025-01-14", clock: "12:00 AM", level: 1, country: "AU", name: "Westpac Consumer Confidence"},
		teFixtureRow{clock: "12:30 PM", level: 2, country: "GB", name: "Retail Sales"},
	)

	res, err := (&TradingEconomics{}).Parse(payload)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("errors=%v", res.Errors)
	}
	want := []time.Time{
		time.Date(2025, 1, 13, 8, 30, 0, 0, time.UTC),
		time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 14, 12, 30, 0, 0, time.UTC),
	}
	if len(res.Records) != len(want) {
		t.Fatalf("records=%d want=%d", len(res.Records), len(want))
	}
	for i, rec := range res.Records {
		if !rec.ReleaseAt.Equal(want[i]) {
			t.Fatalf("record %d release_at=%s want=%s", i, rec.ReleaseAt, want[i])
		}
	}
}

func TestTradingEconomics_NoDateBeforeRow(t *testing.T) {
	payload := teDocument("",
		teFixtureRow{clock: "08:30 AM", level: 1, country: "US", name: "CPI"},
		teFixtureRow{date: "2025-01-13", clock: "09:30 AM", level: 1, country: "US", name: "PPI"},
	)

	res, err := (&TradingEconomics{}).Parse(payload)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Records) != 1 || len(res.Errors) != 1 {
		t.Fatalf("records=%d errors=%d want=1/1", len(res.Records), len(res.Errors))
	}
	if res.Errors[0].Row != 1 {
		t.Fatalf("error row=%d want=1", res.Errors[0].Row)
	}
}

func TestTradingEconomics_Fields(t *testing.T) {
	payload := teDocument("",
		teFixtureRow{date: "2025-01-13", clock: "08:30 AM", level: 3, country: "US", name: "Core Inflation Rate MoM", actual: "0.2%", consensus: "0.3%", forecast: "0.1%"},
		teFixtureRow{date: "2025-01-13", clock: "08:30 AM", level: 2, country: "US", name: "PPI MoM", forecast: "0.4%"},
	)

	res, err := (&TradingEconomics{}).Parse(payload)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records=%d want=2 errors=%v", len(res.Records), res.Errors)
	}
	first := res.Records[0]
	if first.RawName != "Core Inflation Rate MoM" || first.CountryRaw != "US" {
		t.Fatalf("name=%q country=%q", first.RawName, first.CountryRaw)
	}
	if first.ActualRaw != "0.2%" || first.PreviousRaw != "2.7%" {
		t.Fatalf("actual=%q previous=%q", first.ActualRaw, first.PreviousRaw)
	}
	if first.ForecastRaw != "0.3%" {
		t.Fatalf("forecast=%q want consensus 0.3%%", first.ForecastRaw)
	}
	if first.Period != "DEC" || first.ImpactRaw != "3" {
		t.Fatalf("period=%q impact=%q", first.Period, first.ImpactRaw)
	}
	if res.Records[1].ForecastRaw != "0.4%" {
		t.Fatalf("forecast=%q want fallback 0.4%%", res.Records[1].ForecastRaw)
	}
}

func TestTradingEconomics_MissingTable(t *testing.T) {
	_, err := (&TradingEconomics{}).Parse([]byte(`<html><body><p>maintenance</p></body></html>`))
	if !errors.Is(err, ErrNoCalendar) {
		t.Fatalf("err=%v want=%v", err, ErrNoCalendar)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"12:00 AM", 0, 0, true},
		{"12:30 PM", 12, 30, true},
		{"1:15 PM", 13, 15, true},
		{"08:30 AM", 8, 30, true},
		{"11:59pm", 23, 59, true},
		{"13:00 PM", 0, 0, false},
		{"Tentative", 0, 0, false},
	}
	for _, tc := range cases {
		hour, minute, err := parseClock(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("parseClock(%q) err=%v ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && (hour != tc.hour || minute != tc.minute) {
			t.Fatalf("parseClock(%q)=%02d:%02d want=%02d:%02d", tc.in, hour, minute, tc.hour, tc.minute)
		}
	}
}

func TestNew(t *testing.T) {
	p, err := New("TE", nil)
	if err != nil || p.Name() != "tradingeconomics" {
		t.Fatalf("p=%v err=%v", p, err)
	}
	p, err = New("forexfactory", time.Now)
	if err != nil || p.Name() != "forexfactory" {
		t.Fatalf("p=%v err=%v", p, err)
	}
	if _, err := New("bloomberg", nil); err == nil {
		t.Fatalf("expected error")
	}
}
