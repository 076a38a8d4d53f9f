package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/net/html"
)

// TradingEconomics reads the table#calendar markup. Release rows carry a data-url
// attribute; the date is taken from a YYYY-MM-DD token in a cell class or from the
// day header rows between them.
type TradingEconomics struct{}

func (p *TradingEconomics) Name() string { return "tradingeconomics" }

var (
	isoDatePattern    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	headerDatePattern = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
)

type teRow struct {
	node *html.Node
	// index is the 1-based position among release rows; 0 marks a header row.
	index int
}

func (p *TradingEconomics) Parse(payload []byte) (Result, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	table := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "table") && attr(n, "id") == "calendar"
	})
	if table == nil {
		return Result{}, ErrNoCalendar
	}

	var rows []teRow
	index := 0
	for _, tr := range findAll(table, func(n *html.Node) bool { return isElement(n, "tr") }) {
		// Nested tables (country flag cells) have rows of their own.
		if closestAncestor(tr, "table") != table {
			continue
		}
		if hasAttr(tr, "data-url") {
			index++
			rows = append(rows, teRow{node: tr, index: index})
			continue
		}
		rows = append(rows, teRow{node: tr})
	}

	_, res := fold(rows, dateCursor{}, p.step)
	return res, nil
}

func (p *TradingEconomics) step(cur dateCursor, row teRow) (dateCursor, *RawReleaseRecord, *ParseError) {
	if row.index == 0 {
		if day, ok := headerDate(text(row.node)); ok {
			return cur.withDay(day), nil, nil
		}
		return cur, nil, nil
	}

	for _, td := range findAll(row.node, func(n *html.Node) bool { return isElement(n, "td") }) {
		token := isoDatePattern.FindString(attr(td, "class"))
		if token == "" {
			continue
		}
		if day, err := time.Parse("2006-01-02", token); err == nil {
			cur = cur.withDay(day)
			break
		}
	}

	timeNode := findFirst(row.node, byTagClass("span", "calendar-date-1"))
	if timeNode == nil {
		if td := findFirst(row.node, func(n *html.Node) bool { return isElement(n, "td") }); td != nil {
			timeNode = findFirst(td, func(n *html.Node) bool { return isElement(n, "span") })
		}
	}
	timeText := text(timeNode)
	country := text(findFirst(row.node, byTagClass("td", "calendar-iso")))
	name := text(findFirst(row.node, byTagClass("a", "calendar-event")))
	if name == "" {
		name = collapse(attr(row.node, "data-event"))
	}

	fail := func(reason string) (dateCursor, *RawReleaseRecord, *ParseError) {
		return cur, nil, &ParseError{Row: row.index, Reason: reason}
	}
	switch {
	case name == "":
		return fail("missing indicator name")
	case country == "":
		return fail("missing country")
	case timeText == "":
		return fail("missing time")
	}
	hour, minute, err := parseClock(timeText)
	if err != nil {
		return fail(err.Error())
	}
	if !cur.set {
		return fail("no date seen before row")
	}
	cur = cur.withClock(hour, minute)

	forecast := text(findFirst(row.node, byID("consensus")))
	if forecast == "" {
		forecast = text(findFirst(row.node, byID("forecast")))
	}

	return cur, &RawReleaseRecord{
		Row:          row.index,
		RawName:      name,
		CountryRaw:   country,
		TimeText:     timeText,
		ActualRaw:    text(findFirst(row.node, byID("actual"))),
		ForecastRaw:  forecast,
		PreviousRaw:  text(findFirst(row.node, byID("previous"))),
		CategoryHint: collapse(attr(row.node, "data-category")),
		Period:       text(findFirst(row.node, byTagClass("span", "calendar-reference"))),
		ImpactRaw:    teImpact(row.node),
		ReleaseAt:    cur.at(hour, minute),
	}, nil
}

// teImpact reads the importance level from the "calendar-date-N" class on the time span.
func teImpact(tr *html.Node) string {
	for _, level := range []string{"3", "2", "1"} {
		if findFirst(tr, byClass("calendar-date-"+level)) != nil {
			return level
		}
	}
	return ""
}

func headerDate(s string) (time.Time, bool) {
	m := headerDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, err := time.Parse("January 2 2006", fmt.Sprintf("%s %s %s", m[1], m[2], m[3]))
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
