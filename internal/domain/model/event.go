package model

import (
	"errors"
	"time"
)

// Event is a calendar entry normalized from a raw iCal VEVENT.
type Event struct {
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Summary     *string          `json:"summary"`
	Location    *string          `json:"location"`
	Description EventDescription `json:"description"`
}

// EventDescription holds the fields heuristically extracted from an event's free-text description.
type EventDescription struct {
	ID       *string  `json:"id"`
	Type     *string  `json:"type"`
	Groups   []string `json:"groups"`
	Teachers []string `json:"teachers"`
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// DateRange is an inclusive calendar-date range; only the date part of First and Last is used.
type DateRange struct {
	First time.Time
	Last  time.Time
}

const dateLayout = "2006-01-02"

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.First.IsZero() && r.Last.IsZero()
}

// Resolve fills unset bounds with today in loc (First) or First (Last).
func (r DateRange) Resolve(now time.Time, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	out := r
	if out.First.IsZero() {
		out.First = now.In(loc)
	}
	if out.Last.IsZero() {
		out.Last = out.First
	}
	return out
}

// Validate checks that First is not after Last at date granularity.
func (r DateRange) Validate() error {
	if r.First.IsZero() || r.Last.IsZero() {
		return errors.New("date range bounds are required")
	}
	if r.FirstDate() > r.LastDate() {
		return errors.New("first date is after last date")
	}
	return nil
}

// FirstDate formats First as YYYY-MM-DD.
func (r DateRange) FirstDate() string { return r.First.Format(dateLayout) }

// LastDate formats Last as YYYY-MM-DD.
func (r DateRange) LastDate() string { return r.Last.Format(dateLayout) }

// ParseDate parses a YYYY-MM-DD string in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}
