// Package ics converts weekly classes to and from iCalendar and expands them
// into concrete occurrences.
package ics

import (
	"errors"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// ContentType is the MIME type of ExportClasses' output.
const ContentType = "text/calendar; charset=utf-8"

const productID = "-//studycal//Student Calendar//EN"

// Extension properties that keep the cosmetic fields across a round trip.
const (
	propEmoji = ical.ComponentProperty("X-STUDYCAL-EMOJI")
	propColor = ical.ComponentProperty("X-STUDYCAL-COLOR")
)

// ExportClasses renders every class as a weekly recurring VEVENT. The first
// occurrence is anchored in the Sunday..Saturday week containing ref, on the
// earliest of the class's days, at its wall-clock time in loc.
//
// Classes without a parseable start time or any recognizable weekday are
// left out; a missing or invalid end time produces a zero-length event.
func ExportClasses(classes []model.Class, ref time.Time, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	y, m, d := ref.Date()
	sunday := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -int(ref.Weekday()))

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Classes")

	exported := 0
	for _, c := range classes {
		start, err := c.Start()
		if err != nil {
			appLog.Debug("ics export: skipping class", "id", c.ID, "reason", err.Error())
			continue
		}
		days := classWeekdays(c)
		if len(days) == 0 {
			appLog.Debug("ics export: skipping class without weekdays", "id", c.ID)
			continue
		}
		end := start
		if e, err := c.End(); err == nil && e > start {
			end = e
		}

		first := sunday.AddDate(0, 0, int(days[0]))

		ev := cal.AddEvent(c.ID)
		ev.SetDtStampTime(ref)
		ev.SetSummary(summaryFor(c))
		ev.SetStartAt(start.On(first))
		ev.SetEndAt(end.On(first))
		ev.AddRrule(weeklyRule(days))
		if c.Emoji != "" {
			ev.SetProperty(propEmoji, c.Emoji)
		}
		if c.Color != "" {
			ev.SetProperty(propColor, c.Color)
		}
		exported++
	}

	if exported == 0 && len(classes) > 0 {
		return nil, errors.New("ics export: no class could be exported")
	}
	return []byte(cal.Serialize()), nil
}

// summaryFor prefixes the emoji so calendar apps show it.
func summaryFor(c model.Class) string {
	if c.Emoji == "" {
		return c.Name
	}
	return c.Emoji + " " + c.Name
}
