// Package report holds the date-range primitives shared by the reporting
// queries. Range parsing fails loudly: callers that want a fallback window
// must choose it themselves instead of having bad input silently masked.
package report

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateFormat indicates a date parameter that is not a valid
// ISO date (YYYY-MM-DD)
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

const dateLayout = "2006-01-02"

// DateRange is an inclusive [From, To] date interval. From is truncated to
// the start of its day and To extended to the end of its day, so both
// boundary dates fall inside the range.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseRange parses date_from/date_to query parameters into a DateRange.
// An empty string leaves the matching side of the default range untouched;
// a malformed value returns ErrInvalidDateFormat. The caller decides what
// happens on error.
func ParseRange(dateFrom, dateTo string, def DateRange) (DateRange, error) {
	r := def

	if dateFrom != "" {
		from, err := time.Parse(dateLayout, dateFrom)
		if err != nil {
			return DateRange{}, fmt.Errorf("date_from %q: %w", dateFrom, ErrInvalidDateFormat)
		}
		r.From = from
	}

	if dateTo != "" {
		to, err := time.Parse(dateLayout, dateTo)
		if err != nil {
			return DateRange{}, fmt.Errorf("date_to %q: %w", dateTo, ErrInvalidDateFormat)
		}
		r.To = to
	}

	r.normalize()
	return r, nil
}

// LastNDays returns the inclusive range covering the past n days up to now
func LastNDays(n int, now time.Time) DateRange {
	r := DateRange{From: now.AddDate(0, 0, -n), To: now}
	r.normalize()
	return r
}

// LastNMonths returns the inclusive range covering the past n calendar
// months up to now
func LastNMonths(n int, now time.Time) DateRange {
	r := DateRange{From: now.AddDate(0, -n, 0), To: now}
	r.normalize()
	return r
}

// Previous returns the range of equal length immediately before r, used
// for period-over-period comparisons.
func (r DateRange) Previous() DateRange {
	length := r.To.Sub(r.From)
	return DateRange{
		From: r.From.Add(-length - time.Nanosecond),
		To:   r.From.Add(-time.Nanosecond),
	}
}

// Contains reports whether t falls inside the inclusive range
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// normalize snaps From to the start of its day and To to the end of its
// day so both boundary dates are included in queries.
func (r *DateRange) normalize() {
	r.From = time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, r.From.Location())
	r.To = time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 23, 59, 59, 999999999, r.To.Location())
}
