package parser

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ForexFactory reads the calendar__row markup. Only the first row of a day shows
// the date and consecutive releases at the same time leave the time cell empty,
// so both are inherited through the cursor. Dates carry no year; Now anchors it.
type ForexFactory struct {
	Now func() time.Time
}

func (p *ForexFactory) Name() string { return "forexfactory" }

var (
	ffDatePattern     = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{1,2})`)
	ffImpactPattern   = regexp.MustCompile(`icon--ff-impact-([a-z]+)`)
	ffCurrencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

type ffRow struct {
	node  *html.Node
	index int
}

func (p *ForexFactory) Parse(payload []byte) (Result, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	trs := findAll(doc, byTagClass("tr", "calendar__row"))
	if len(trs) == 0 {
		return Result{}, ErrNoCalendar
	}

	rows := make([]ffRow, 0, len(trs))
	index := 0
	for _, tr := range trs {
		if findFirst(tr, byClass("calendar__event")) == nil {
			rows = append(rows, ffRow{node: tr})
			continue
		}
		index++
		rows = append(rows, ffRow{node: tr, index: index})
	}

	_, res := fold(rows, dateCursor{}, p.step)
	return res, nil
}

func (p *ForexFactory) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *ForexFactory) step(cur dateCursor, row ffRow) (dateCursor, *RawReleaseRecord, *ParseError) {
	dateText := text(findFirst(row.node, byTagClass("td", "calendar__date")))
	if dateText == "" && hasClass(row.node, "calendar__row--day-breaker") {
		dateText = text(row.node)
	}
	if day, ok := p.monthDay(dateText); ok {
		cur = cur.withDay(day)
	}
	if row.index == 0 {
		return cur, nil, nil
	}

	fail := func(reason string) (dateCursor, *RawReleaseRecord, *ParseError) {
		return cur, nil, &ParseError{Row: row.index, Reason: reason}
	}

	name := text(findFirst(row.node, byTagClass("span", "calendar__event-title")))
	if name == "" {
		name = text(findFirst(row.node, byClass("calendar__event")))
	}
	if name == "" {
		return fail("missing indicator name")
	}
	currency := ffCurrency(row.node)
	if currency == "" {
		return fail("missing currency")
	}

	timeText := text(findFirst(row.node, byTagClass("td", "calendar__time")))
	var releaseAt time.Time
	if ts := ffTimestamp(row.node); ts != nil {
		releaseAt = *ts
		cur = cur.withDay(releaseAt).withClock(releaseAt.Hour(), releaseAt.Minute())
		if timeText == "" {
			timeText = releaseAt.Format("15:04")
		}
	} else {
		if !cur.set {
			return fail("no date seen before row")
		}
		lower := strings.ToLower(timeText)
		switch {
		case timeText == "":
			if !cur.hasTime {
				return fail("missing time")
			}
			releaseAt = cur.at(cur.hour, cur.minute)
		case strings.Contains(lower, "all day"), strings.Contains(lower, "tentative"), strings.HasPrefix(lower, "day "):
			releaseAt = cur.at(0, 0)
		default:
			hour, minute, err := parseClock(timeText)
			if err != nil {
				return fail(err.Error())
			}
			cur = cur.withClock(hour, minute)
			releaseAt = cur.at(hour, minute)
		}
	}

	return cur, &RawReleaseRecord{
		Row:         row.index,
		RawName:     name,
		CountryRaw:  currency,
		TimeText:    timeText,
		ActualRaw:   text(findFirst(row.node, byTagClass("td", "calendar__actual"))),
		ForecastRaw: text(findFirst(row.node, byTagClass("td", "calendar__forecast"))),
		PreviousRaw: text(findFirst(row.node, byTagClass("td", "calendar__previous"))),
		ImpactRaw:   ffImpact(row.node),
		ReleaseAt:   releaseAt,
	}, nil
}

// monthDay resolves "Mon Jan 13" to the year closest to now so a week that spans
// the new year lands on the right side of it.
func (p *ForexFactory) monthDay(s string) (time.Time, bool) {
	m := ffDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, err := time.Parse("Jan", strings.ToUpper(m[1][:1])+strings.ToLower(m[1][1:]))
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	now := p.now()
	var best time.Time
	var bestDiff time.Duration
	for _, year := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		candidate := time.Date(year, month.Month(), day, 0, 0, 0, 0, time.UTC)
		diff := candidate.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if best.IsZero() || diff < bestDiff {
			best, bestDiff = candidate, diff
		}
	}
	return best, true
}

func ffTimestamp(tr *html.Node) *time.Time {
	raw := attr(tr, "data-timestamp")
	if raw == "" {
		raw = attr(findFirst(tr, func(n *html.Node) bool { return hasAttr(n, "data-timestamp") }), "data-timestamp")
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

func ffCurrency(tr *html.Node) string {
	if cur := text(findFirst(tr, byTagClass("td", "calendar__currency"))); ffCurrencyPattern.MatchString(cur) {
		return cur
	}
	node := findFirst(tr, func(n *html.Node) bool {
		return n.Type == html.ElementNode && ffCurrencyPattern.MatchString(attr(n, "title"))
	})
	return attr(node, "title")
}

func ffImpact(tr *html.Node) string {
	node := findFirst(tr, func(n *html.Node) bool {
		return n.Type == html.ElementNode && ffImpactPattern.MatchString(attr(n, "class"))
	})
	if node == nil {
		return ""
	}
	return ffImpactPattern.FindStringSubmatch(attr(node, "class"))[1]
}
