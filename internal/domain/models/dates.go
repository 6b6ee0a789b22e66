package models

import (
	"fmt"
	"time"
)

// DateRange is an inclusive range of dates. Zero dates mark an empty range.
type DateRange struct {
	First time.Time
	Last  time.Time
}

func NewDateRange(first, last time.Time) DateRange {
	return DateRange{First: first, Last: last}
}

func StripHours(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (r DateRange) IsValid() bool {
	return !r.First.IsZero() && !r.Last.IsZero() && !r.First.After(r.Last)
}

func (r DateRange) StripHours() DateRange {
	if !r.IsValid() {
		return r
	}
	return DateRange{First: StripHours(r.First), Last: StripHours(r.Last)}
}

// InclusiveRange returns the half-open equivalent [First, Last+1day) of the date-only range.
func (r DateRange) InclusiveRange() DateRange {
	s := r.StripHours()
	if !s.IsValid() {
		return s
	}
	return DateRange{First: s.First, Last: s.Last.AddDate(0, 0, 1)}
}

func (r DateRange) Contains(t time.Time) bool {
	return r.IsValid() && !t.Before(r.First) && !t.After(r.Last)
}

// Intersection returns the overlap of both ranges, or an empty range when they are disjoint.
func (r DateRange) Intersection(other DateRange) DateRange {
	if !r.IsValid() || !other.IsValid() {
		return DateRange{}
	}

	first := r.First
	if other.First.After(first) {
		first = other.First
	}
	last := r.Last
	if other.Last.Before(last) {
		last = other.Last
	}

	if first.After(last) {
		return DateRange{}
	}
	return DateRange{First: first, Last: last}
}

func (r DateRange) Compare(other DateRange) int {
	if c := r.First.Compare(other.First); c != 0 {
		return c
	}
	return r.Last.Compare(other.Last)
}

func (r DateRange) Less(other DateRange) bool {
	return r.Compare(other) < 0
}

func (r DateRange) String() string {
	if r.First.IsZero() && r.Last.IsZero() {
		return "EMPTY"
	}
	return fmt.Sprintf("%s-%s", r.First.Format(time.DateOnly), r.Last.Format(time.DateOnly))
}
