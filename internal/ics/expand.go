package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

const (
	defaultMaxOccurrencesPerClass = 1000
)

// ExpandConfig controls how classes are expanded into occurrences.
type ExpandConfig struct {
	// DisplayLocation is the zone whose wall clock the class times refer to.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive window for occurrence starts.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerClass caps a single class's expansion. If zero,
	// defaultMaxOccurrencesPerClass is used.
	MaxOccurrencesPerClass int
}

// ExpandResult wraps the expanded occurrences.
type ExpandResult struct {
	Occurrences []model.Occurrence `json:"occurrences"`
	// Truncated lists class IDs that hit MaxOccurrencesPerClass.
	Truncated []string `json:"truncated,omitempty"`
	// Skipped lists class IDs whose times or days could not be interpreted.
	Skipped []string `json:"skipped,omitempty"`
}

// ExpandClasses turns each weekly class into concrete meetings within the
// configured range, sorted by start time (ties keep collection order).
//
// A class whose end time is missing or not after its start yields
// zero-length occurrences.
func ExpandClasses(classes []model.Class, cfg ExpandConfig) (ExpandResult, error) {
	result := ExpandResult{Occurrences: make([]model.Occurrence, 0)}

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerClass <= 0 {
		cfg.MaxOccurrencesPerClass = defaultMaxOccurrencesPerClass
	}

	for _, c := range classes {
		occ, hitCap, err := expandClass(c, cfg)
		if err != nil {
			appLog.Debug("expand: skipping class", "id", c.ID, "reason", err.Error())
			result.Skipped = append(result.Skipped, c.ID)
			continue
		}
		if hitCap {
			result.Truncated = append(result.Truncated, c.ID)
			appLog.Warn("expand: truncated occurrences for class due to cap",
				"id", c.ID,
				"cap", cfg.MaxOccurrencesPerClass,
			)
		}
		result.Occurrences = append(result.Occurrences, occ...)
	}

	slices.SortStableFunc(result.Occurrences, func(a, b model.Occurrence) int {
		return a.Start.Compare(b.Start)
	})
	return result, nil
}

func expandClass(c model.Class, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	start, err := c.Start()
	if err != nil {
		return nil, false, err
	}
	days := classWeekdays(c)
	if len(days) == 0 {
		return nil, false, errors.New("no recognizable weekdays")
	}
	length := time.Duration(0)
	if end, err := c.End(); err == nil && end > start {
		length = time.Duration(end-start) * time.Minute
	}

	// Anchor on the first day of the range; rrule only yields matching
	// weekdays, so the anchor itself need not be a meeting day.
	from := cfg.RangeStart.In(cfg.DisplayLocation)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: toRRuleWeekdays(days),
		Dtstart:   start.On(from),
	})
	if err != nil {
		return nil, false, err
	}

	times := r.Between(from, cfg.RangeEnd.In(cfg.DisplayLocation), true)
	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerClass {
		times = times[:cfg.MaxOccurrencesPerClass]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, model.Occurrence{
			ClassID:     c.ID,
			Name:        c.Name,
			Emoji:       c.Emoji,
			Color:       c.Color,
			InstanceKey: c.ID + "@" + t.Format(time.RFC3339),
			Start:       t,
			End:         t.Add(length),
		})
	}
	return out, hitCap, nil
}
