package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAllSourcesFailed = errors.New("all sources failed")
	ErrUnknownSource    = errors.New("unknown source")
	ErrNoSources        = errors.New("no enabled sources")
)

// MatchError is a row whose indicator could not be resolved.
type MatchError struct {
	Row         int
	Name        string
	CountryCode string
	Err         error
}

func (e *MatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: no indicator match for %s (%s): %v", e.Row, e.Name, e.CountryCode, e.Err)
	}
	return fmt.Sprintf("row %d: no indicator match for %s (%s)", e.Row, e.Name, e.CountryCode)
}

func (e *MatchError) Unwrap() error { return e.Err }

// ConflictError is a release row the store rejected for a reason other than an
// existing natural key (e.g. a foreign-key violation).
type ConflictError struct {
	IndicatorID string
	ReleaseAt   time.Time
	Err         error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("release %s@%s rejected: %v", e.IndicatorID, e.ReleaseAt.UTC().Format(time.RFC3339), e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// MergeError leaves one duplicate group unresolved until the next maintenance run.
type MergeError struct {
	Group string
	Op    string
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s: %s: %v", e.Group, e.Op, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }
