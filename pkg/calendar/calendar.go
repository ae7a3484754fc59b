// Package calendar does day, week and month arithmetic on UTC calendar days.
// No timezone conversion is performed: every instant is reduced to its UTC date.
package calendar

import (
	"sort"
	"time"

	"github.com/limbo/habitstreak/pkg/entity"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Day returns midnight of t's calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayWindow returns [midnight, next midnight) of the day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := Day(t)
	return start, start.AddDate(0, 0, 1)
}

// PeriodWindow returns the half-open window that counts toward a habit's target
// for the period containing day. Weeks start on Monday. Unknown frequencies
// fall back to the daily window.
func PeriodWindow(freq entity.Frequency, day time.Time) (time.Time, time.Time) {
	start := Day(day)
	switch freq {
	case entity.FrequencyWeekly:
		// Monday = 0
		offset := (int(start.Weekday()) + 6) % 7
		start = start.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case entity.FrequencyMonthly:
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		// AddDate normalizes December + 1 into January of the next year.
		return start, start.AddDate(0, 1, 0)
	default:
		return DayWindow(start)
	}
}

// DaySet is a set of calendar days.
type DaySet map[time.Time]struct{}

func NewDaySet(days ...time.Time) DaySet {
	set := make(DaySet, len(days))
	for _, d := range days {
		set.Add(d)
	}
	return set
}

func (s DaySet) Add(t time.Time) {
	s[Day(t)] = struct{}{}
}

func (s DaySet) Has(t time.Time) bool {
	_, ok := s[Day(t)]
	return ok
}

// RunEndingAt counts consecutive days present in the set walking backwards from anchor.
// Zero if anchor itself is absent.
func (s DaySet) RunEndingAt(anchor time.Time) int {
	run := 0
	for d := Day(anchor); s.Has(d); d = d.AddDate(0, 0, -1) {
		run++
	}
	return run
}

// LongestRun returns the length of the longest sequence of consecutive days.
func LongestRun(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(days))
	for _, d := range days {
		sorted = append(sorted, Day(d))
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	longest, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i].Equal(sorted[i-1]):
			continue
		case sorted[i].Equal(sorted[i-1].AddDate(0, 0, 1)):
			current++
		default:
			current = 1
		}
		longest = max(longest, current)
	}
	return longest
}
