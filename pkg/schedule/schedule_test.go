package schedule

import (
	"testing"
	"time"

	"github.com/grocerly/grocerly-backend/pkg/enums"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeliveryDayCount(t *testing.T) {
	// 2026-06-01 is a Monday.
	monday := date(2026, time.June, 1)

	cases := []struct {
		name   string
		start  time.Time
		end    time.Time
		days   WeekdaySet
		pauses []Interval
		want   int
	}{
		{
			name:  "mon wed over two weeks",
			start: monday,
			end:   monday.AddDate(0, 0, 13),
			days:  NewWeekdaySet(enums.WeekdayMonday, enums.WeekdayWednesday),
			want:  4,
		},
		{
			name:  "every day over one week",
			start: monday,
			end:   monday.AddDate(0, 0, 6),
			days:  NewWeekdaySet(enums.Weekdays...),
			want:  7,
		},
		{
			name:  "single day window matching weekday",
			start: monday,
			end:   monday,
			days:  NewWeekdaySet(enums.WeekdayMonday),
			want:  1,
		},
		{
			name:  "single day window not matching",
			start: monday,
			end:   monday,
			days:  NewWeekdaySet(enums.WeekdaySunday),
			want:  0,
		},
		{
			name:  "empty weekday set",
			start: monday,
			end:   monday.AddDate(0, 0, 13),
			days:  NewWeekdaySet(),
			want:  0,
		},
		{
			name:  "end before start",
			start: monday,
			end:   monday.AddDate(0, 0, -1),
			days:  NewWeekdaySet(enums.WeekdayMonday),
			want:  0,
		},
		{
			name: "zero start date",
			end:  monday,
			days: NewWeekdaySet(enums.WeekdayMonday),
			want: 0,
		},
		{
			name:  "pause removes overlapping weekdays only",
			start: monday,
			end:   monday.AddDate(0, 0, 13),
			days:  NewWeekdaySet(enums.WeekdayMonday, enums.WeekdayWednesday),
			// Days 8-9: second Monday and Tuesday. Only the Monday is selected.
			pauses: []Interval{{
				Start: monday.AddDate(0, 0, 7),
				End:   monday.AddDate(0, 0, 8),
			}},
			want: 3,
		},
		{
			name:  "pause inclusive on both ends",
			start: monday,
			end:   monday.AddDate(0, 0, 13),
			days:  NewWeekdaySet(enums.WeekdayMonday),
			pauses: []Interval{{
				Start: monday.AddDate(0, 0, 7),
				End:   monday.AddDate(0, 0, 7),
			}},
			want: 1,
		},
		{
			name:  "pause covering whole range",
			start: monday,
			end:   monday.AddDate(0, 0, 13),
			days:  NewWeekdaySet(enums.WeekdayMonday, enums.WeekdayWednesday),
			pauses: []Interval{{
				Start: monday,
				End:   monday.AddDate(0, 0, 13),
			}},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeliveryDayCount(tc.start, tc.end, tc.days, tc.pauses)
			if got != tc.want {
				t.Fatalf("DeliveryDayCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDeliveryDayCount_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.June, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2026, time.June, 8, 0, 1, 0, 0, time.UTC)
	got := DeliveryDayCount(start, end, NewWeekdaySet(enums.WeekdayMonday), nil)
	if got != 2 {
		t.Fatalf("expected both Mondays to count regardless of clock time, got %d", got)
	}
}

func TestOccurrences(t *testing.T) {
	monday := date(2026, time.June, 1)
	got := Occurrences(monday, monday.AddDate(0, 0, 13),
		NewWeekdaySet(enums.WeekdayMonday, enums.WeekdayWednesday), nil)

	want := []time.Time{
		monday,
		monday.AddDate(0, 0, 2),
		monday.AddDate(0, 0, 7),
		monday.AddDate(0, 0, 9),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCountForWeekday(t *testing.T) {
	monday := date(2026, time.June, 1)
	if got := CountForWeekday(monday, monday.AddDate(0, 0, 13), enums.WeekdayWednesday, nil); got != 2 {
		t.Fatalf("expected 2 Wednesdays, got %d", got)
	}
	if got := CountForWeekday(monday, monday.AddDate(0, 0, 13), enums.Weekday("someday"), nil); got != 0 {
		t.Fatalf("expected 0 for invalid weekday, got %d", got)
	}
}

func TestDeliveryDayCount_Deterministic(t *testing.T) {
	monday := date(2026, time.June, 1)
	days := NewWeekdaySet(enums.WeekdayFriday, enums.WeekdaySaturday)
	pauses := []Interval{{Start: monday.AddDate(0, 0, 4), End: monday.AddDate(0, 0, 5)}}

	first := DeliveryDayCount(monday, monday.AddDate(0, 0, 27), days, pauses)
	for i := 0; i < 5; i++ {
		if got := DeliveryDayCount(monday, monday.AddDate(0, 0, 27), days, pauses); got != first {
			t.Fatalf("result changed between calls: %d vs %d", first, got)
		}
	}
}
