package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// ParseClasses reads weekly recurring VEVENTs back into classes. The UID
// becomes the class ID; start/end wall-clock times are taken in loc.
//
//   - Events without an RRULE, or whose RRULE is not weekly, are skipped.
//   - BYDAY supplies the days; without it the DTSTART weekday is used.
//   - X-STUDYCAL-EMOJI / X-STUDYCAL-COLOR restore the cosmetic fields and
//     the emoji prefix added by ExportClasses is stripped from SUMMARY.
func ParseClasses(body []byte, loc *time.Location) ([]model.Class, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	classes := make([]model.Class, 0)
	for _, ve := range cal.Events() {
		c, perr := parseVEvent(ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Debug("ics vevent skipped", "reason", perr.Error())
			continue
		}
		classes = append(classes, c)
	}

	appLog.Info("ics parse completed", "class_count", len(classes))
	return classes, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Class, error) {
	var out model.Class

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = uidProp.Value

	rruleProp := ve.GetProperty(ical.ComponentPropertyRrule)
	if rruleProp == nil {
		return out, errors.New("not recurring: " + out.ID)
	}
	opt, err := rrule.StrToROption(rruleProp.Value)
	if err != nil {
		return out, err
	}
	if opt.Freq != rrule.WEEKLY {
		return out, errors.New("not weekly: " + out.ID)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	start = start.In(loc)
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}
	end = end.In(loc)

	out.StartTime = model.ClockOf(start).String()
	out.EndTime = model.ClockOf(end).String()

	if p := ve.GetProperty(propEmoji); p != nil {
		out.Emoji = p.Value
	}
	if p := ve.GetProperty(propColor); p != nil {
		out.Color = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Name = p.Value
		if out.Emoji != "" {
			out.Name = strings.TrimPrefix(out.Name, out.Emoji+" ")
		}
	}

	if len(opt.Byweekday) == 0 {
		out.Days = []string{model.WeekdayName(start.Weekday())}
	} else {
		for _, w := range opt.Byweekday {
			out.Days = append(out.Days, model.WeekdayName(fromRRuleWeekday(w)))
		}
	}

	return out, nil
}
