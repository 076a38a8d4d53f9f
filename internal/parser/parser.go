package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrNoCalendar = errors.New("calendar table not found")

// RawReleaseRecord is one calendar row as published by the source. Empty strings mean absent.
type RawReleaseRecord struct {
	Row          int       `json:"row"`
	RawName      string    `json:"raw_name"`
	CountryRaw   string    `json:"country_raw"`
	TimeText     string    `json:"time_text"`
	ActualRaw    string    `json:"actual_raw,omitempty"`
	ForecastRaw  string    `json:"forecast_raw,omitempty"`
	PreviousRaw  string    `json:"previous_raw,omitempty"`
	CategoryHint string    `json:"category_hint,omitempty"`
	Period       string    `json:"period,omitempty"`
	ImpactRaw    string    `json:"impact_raw,omitempty"`
	ReleaseAt    time.Time `json:"release_at"`
}

// ParseError describes a single row that could not be read.
type ParseError struct {
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result holds the rows that parsed and the rows that did not, both in source order.
type Result struct {
	Records []RawReleaseRecord
	Errors  []ParseError
}

type Parser interface {
	Name() string
	Parse(payload []byte) (Result, error)
}

// New returns the parser variant registered under name.
func New(name string, now func() time.Time) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tradingeconomics", "te":
		return &TradingEconomics{}, nil
	case "forexfactory", "ff":
		return &ForexFactory{Now: now}, nil
	default:
		return nil, fmt.Errorf("unknown parser: %s", name)
	}
}

// dateCursor is the date (and last seen clock time) carried from one row to the next.
// It is a value: every step returns the cursor the following row starts from.
type dateCursor struct {
	day     time.Time
	set     bool
	hour    int
	minute  int
	hasTime bool
}

func (c dateCursor) withDay(day time.Time) dateCursor {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if c.set && c.day.Equal(day) {
		return c
	}
	return dateCursor{day: day, set: true}
}

func (c dateCursor) withClock(hour, minute int) dateCursor {
	c.hour, c.minute, c.hasTime = hour, minute, true
	return c
}

func (c dateCursor) at(hour, minute int) time.Time {
	return time.Date(c.day.Year(), c.day.Month(), c.day.Day(), hour, minute, 0, 0, time.UTC)
}

// fold threads state through rows strictly in order and collects the per-row outcomes.
// step returns the next state and either a record, a row error, or neither for
// structural rows that only move the cursor.
func fold[S, R any](rows []R, init S, step func(state S, row R) (S, *RawReleaseRecord, *ParseError)) (S, Result) {
	state := init
	var res Result
	for _, row := range rows {
		var rec *RawReleaseRecord
		var perr *ParseError
		state, rec, perr = step(state, row)
		switch {
		case perr != nil:
			res.Errors = append(res.Errors, *perr)
		case rec != nil:
			res.Records = append(res.Records, *rec)
		}
	}
	return state, res
}

var clockPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// parseClock converts "8:30 AM" / "12:05pm" to a 24-hour clock.
func parseClock(text string) (int, int, error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, fmt.Errorf("unrecognized time %q", text)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, fmt.Errorf("time out of range %q", text)
	}
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, nil
}
