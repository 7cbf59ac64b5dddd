package schedule

import (
	"slices"
	"strings"
	"time"

	"studycal/internal/model"
)

// ClassesForDay returns the classes meeting on day (an English weekday name)
// ordered by start time. Classes with equal start times keep their
// collection order.
func ClassesForDay(classes []model.Class, day string) []model.Class {
	out := make([]model.Class, 0)
	for _, c := range classes {
		if c.MeetsOn(day) {
			out = append(out, c)
		}
	}
	sortByStart(out)
	return out
}

// TodaysClasses is ClassesForDay for now's weekday.
func TodaysClasses(classes []model.Class, now time.Time) []model.Class {
	return ClassesForDay(classes, model.WeekdayName(now.Weekday()))
}

// SessionsForDate returns the sessions logged on day's calendar date.
func SessionsForDate(sessions []model.StudySession, day time.Time) []model.StudySession {
	date := day.Format(model.DateLayout)
	out := make([]model.StudySession, 0)
	for _, s := range sessions {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// NextClass returns the earliest class today whose start is strictly after
// now's minute of day. On a start-time tie the class that comes first in
// the collection wins. Classes with unparseable start times are ignored.
func NextClass(classes []model.Class, now time.Time) (model.Class, bool) {
	current := model.ClockOf(now)
	for _, c := range TodaysClasses(classes, now) {
		start, err := c.Start()
		if err != nil {
			continue
		}
		if start > current {
			return c, true
		}
	}
	return model.Class{}, false
}

// sortByStart orders classes by parsed start time, stable. Unparseable
// times sort after every valid one, among themselves by raw string.
func sortByStart(classes []model.Class) {
	slices.SortStableFunc(classes, func(a, b model.Class) int {
		sa, errA := a.Start()
		sb, errB := b.Start()
		switch {
		case errA == nil && errB == nil:
			return int(sa) - int(sb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(a.StartTime, b.StartTime)
		}
	})
}
