package enums

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the enumerated delivery weekday used by subscription schedules.
type Weekday string

const (
	WeekdayMonday    Weekday = "monday"
	WeekdayTuesday   Weekday = "tuesday"
	WeekdayWednesday Weekday = "wednesday"
	WeekdayThursday  Weekday = "thursday"
	WeekdayFriday    Weekday = "friday"
	WeekdaySaturday  Weekday = "saturday"
	WeekdaySunday    Weekday = "sunday"
)

// Weekdays lists every weekday in calendar order, Monday first.
var Weekdays = []Weekday{
	WeekdayMonday,
	WeekdayTuesday,
	WeekdayWednesday,
	WeekdayThursday,
	WeekdayFriday,
	WeekdaySaturday,
	WeekdaySunday,
}

var weekdayToTime = map[Weekday]time.Weekday{
	WeekdayMonday:    time.Monday,
	WeekdayTuesday:   time.Tuesday,
	WeekdayWednesday: time.Wednesday,
	WeekdayThursday:  time.Thursday,
	WeekdayFriday:    time.Friday,
	WeekdaySaturday:  time.Saturday,
	WeekdaySunday:    time.Sunday,
}

var timeToWeekday = map[time.Weekday]Weekday{
	time.Monday:    WeekdayMonday,
	time.Tuesday:   WeekdayTuesday,
	time.Wednesday: WeekdayWednesday,
	time.Thursday:  WeekdayThursday,
	time.Friday:    WeekdayFriday,
	time.Saturday:  WeekdaySaturday,
	time.Sunday:    WeekdaySunday,
}

// String implements fmt.Stringer.
func (w Weekday) String() string {
	return string(w)
}

// IsValid reports whether the value is a known Weekday.
func (w Weekday) IsValid() bool {
	_, ok := weekdayToTime[w]
	return ok
}

// Time converts the enumerated weekday into the time package representation.
func (w Weekday) Time() time.Weekday {
	return weekdayToTime[w]
}

// WeekdayOf converts a time.Weekday into the enumerated form.
func WeekdayOf(t time.Weekday) Weekday {
	return timeToWeekday[t]
}

// ParseWeekday converts raw input into a Weekday, tolerating case.
func ParseWeekday(value string) (Weekday, error) {
	candidate := Weekday(strings.ToLower(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid weekday %q", value)
}
