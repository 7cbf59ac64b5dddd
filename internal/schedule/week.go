// Package schedule derives the dashboard and calendar views from the class
// and study session collections. Every function is pure: the same inputs and
// reference instant always yield the same result.
package schedule

import (
	"fmt"
	"time"

	"studycal/internal/model"
)

// Week is the Sunday..Saturday window containing some reference date.
// Start and End are midnights in the reference's location.
type Week struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the week window containing ref.
func WeekOf(ref time.Time) Week {
	day := midnight(ref)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	return Week{Start: start, End: start.AddDate(0, 0, 6)}
}

// ShiftWeek moves ref by n whole weeks (negative n goes back).
func ShiftWeek(ref time.Time, n int) time.Time {
	return ref.AddDate(0, 0, 7*n)
}

// Days returns the seven dates of the window, Sunday first.
func (w Week) Days() []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = w.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains reports whether day's calendar date lies inside the window.
func (w Week) Contains(day time.Time) bool {
	d := midnight(day.In(w.Start.Location()))
	return !d.Before(w.Start) && !d.After(w.End)
}

// ContainsDate is Contains for a YYYY-MM-DD string. Unparseable dates are
// never inside any week.
func (w Week) ContainsDate(date string) bool {
	d, err := time.ParseInLocation(model.DateLayout, date, w.Start.Location())
	if err != nil {
		return false
	}
	return w.Contains(d)
}

// Label renders the window for the calendar header, e.g. "June 9 - 15, 2024"
// or "Jun 30 - Jul 6, 2024" when the week spans two months.
func (w Week) Label() string {
	if w.Start.Month() == w.End.Month() {
		return fmt.Sprintf("%s %d - %d, %d", w.Start.Month(), w.Start.Day(), w.End.Day(), w.Start.Year())
	}
	return fmt.Sprintf("%s - %s, %d", w.Start.Format("Jan 2"), w.End.Format("Jan 2"), w.Start.Year())
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
