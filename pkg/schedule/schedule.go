// Package schedule computes subscription delivery occurrences as a pure
// calendar calculation. Callers pass every date in; nothing here reads
// the wall clock.
package schedule

import (
	"time"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

// WeekdaySet is the set of weekdays a subscription line delivers on.
type WeekdaySet map[enums.Weekday]struct{}

// NewWeekdaySet builds a set from the provided weekdays, dropping
// invalid values.
func NewWeekdaySet(days ...enums.Weekday) WeekdaySet {
	set := make(WeekdaySet, len(days))
	for _, day := range days {
		if day.IsValid() {
			set[day] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the set includes the given weekday.
func (s WeekdaySet) Contains(day enums.Weekday) bool {
	_, ok := s[day]
	return ok
}

// IsEmpty reports whether no weekday is selected.
func (s WeekdaySet) IsEmpty() bool {
	return len(s) == 0
}

// Interval is a paused date range, inclusive on both ends.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the interval. Comparison is
// by calendar day in the day's own location.
func (i Interval) Contains(day time.Time) bool {
	if i.Start.IsZero() || i.End.IsZero() {
		return false
	}
	d := truncateToDay(day)
	return !d.Before(truncateToDay(i.Start)) && !d.After(truncateToDay(i.End))
}

// DeliveryDayCount returns how many calendar days in [start, end] fall
// on a selected weekday and outside every paused interval. An empty
// weekday set, a zero date, or end before start yields 0.
func DeliveryDayCount(start, end time.Time, days WeekdaySet, pauses []Interval) int {
	count := 0
	walk(start, end, days, pauses, func(time.Time) { count++ })
	return count
}

// Occurrences enumerates the qualifying delivery dates in ascending
// order. The same contract as DeliveryDayCount applies.
func Occurrences(start, end time.Time, days WeekdaySet, pauses []Interval) []time.Time {
	var dates []time.Time
	walk(start, end, days, pauses, func(day time.Time) {
		dates = append(dates, day)
	})
	return dates
}

// CountForWeekday returns the delivery-day count restricted to a single
// weekday. Pricing uses it to weigh per-weekday quantities.
func CountForWeekday(start, end time.Time, day enums.Weekday, pauses []Interval) int {
	if !day.IsValid() {
		return 0
	}
	return DeliveryDayCount(start, end, NewWeekdaySet(day), pauses)
}

func walk(start, end time.Time, days WeekdaySet, pauses []Interval, visit func(time.Time)) {
	if days.IsEmpty() || start.IsZero() || end.IsZero() {
		return
	}
	from := truncateToDay(start)
	to := truncateToDay(end)
	if to.Before(from) {
		return
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if !days.Contains(enums.WeekdayOf(day.Weekday())) {
			continue
		}
		if insideAnyPause(day, pauses) {
			continue
		}
		visit(day)
	}
}

func insideAnyPause(day time.Time, pauses []Interval) bool {
	for _, pause := range pauses {
		if pause.Contains(day) {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
