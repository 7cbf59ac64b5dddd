package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"studycal/internal/model"
)

// byWeekday maps time.Weekday (Sunday=0) to the RRULE weekday.
var byWeekday = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// classWeekdays resolves a class's day names to distinct weekdays in
// Sunday..Saturday order. Unknown names are dropped.
func classWeekdays(c model.Class) []time.Weekday {
	var seen [7]bool
	for _, name := range c.Days {
		if d, ok := model.ParseWeekday(name); ok {
			seen[d] = true
		}
	}
	out := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out
}

func toRRuleWeekdays(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, byWeekday[d])
	}
	return out
}

// fromRRuleWeekday converts back; rrule numbers Monday as 0.
func fromRRuleWeekday(w rrule.Weekday) time.Weekday {
	return time.Weekday((w.Day() + 1) % 7)
}

// weeklyRule returns "FREQ=WEEKLY;BYDAY=..." for the given days.
func weeklyRule(days []time.Weekday) string {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: toRRuleWeekdays(days)}
	return opt.RRuleString()
}
