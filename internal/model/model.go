package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class is a recurring weekly commitment. StartTime/EndTime are kept as the
// "HH:MM" strings they were entered or imported with; use Start/End for the
// numeric time of day.
type Class struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Emoji     string   `json:"emoji"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Days      []string `json:"days"`
	Color     string   `json:"color"`
}

// Start parses StartTime.
func (c Class) Start() (Clock, error) { return ParseClock(c.StartTime) }

// End parses EndTime.
func (c Class) End() (Clock, error) { return ParseClock(c.EndTime) }

// MeetsOn reports whether day (an English weekday name) is in Days.
func (c Class) MeetsOn(day string) bool {
	for _, d := range c.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Tag categorizes a study session.
type Tag string

const (
	TagProductive Tag = "productive"
	TagRevision   Tag = "revision"
	TagExamPrep   Tag = "exam-prep"
	TagResearch   Tag = "research"
)

// Tags lists the closed set of session tags in display order.
var Tags = []Tag{TagProductive, TagRevision, TagExamPrep, TagResearch}

// Valid reports whether t is one of Tags.
func (t Tag) Valid() bool {
	for _, v := range Tags {
		if v == t {
			return true
		}
	}
	return false
}

// Label is the human-facing name used by the entry form.
func (t Tag) Label() string {
	switch t {
	case TagProductive:
		return "🎯 Productive"
	case TagRevision:
		return "📖 Revision"
	case TagExamPrep:
		return "📝 Exam Prep"
	case TagResearch:
		return "🔍 Research"
	default:
		return string(t)
	}
}

// StudySession records time spent studying on a single day.
type StudySession struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Duration int    `json:"duration"` // minutes
	Notes    string `json:"notes"`
	Date     string `json:"date"` // YYYY-MM-DD
	Tag      Tag    `json:"tag"`
	// ClassID may point at a class that has since been deleted.
	ClassID string `json:"classId,omitempty"`
}

// DateLayout is the calendar date format used by StudySession.Date.
const DateLayout = "2006-01-02"

// Day parses Date as a calendar day in loc.
func (s StudySession) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s.Date, loc)
}

// Cosmetic palettes offered by the entry forms. Membership is not enforced.
var (
	EmojiOptions = []string{"📚", "🧮", "🔬", "🎨", "🏃‍♂️", "💻", "🌍", "📖", "🎵", "⚖️", "🩺", "🏗️"}
	ColorOptions = []string{"purple", "blue", "green", "orange", "red", "pink"}
)

const (
	DefaultEmoji = "📚"
	DefaultColor = "purple"
	DefaultTag   = TagProductive
)

// FormDays is the weekday order used by the add-class form.
var FormDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName returns the English name used in Class.Days.
func WeekdayName(d time.Weekday) string { return d.String() }

// ParseWeekday maps an English weekday name back to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

var errBadClock = errors.New("model: time of day must be HH:MM")

// ParseClock parses "HH:MM" (a single-digit hour is tolerated).
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", errBadClock, s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("%w: %q", errBadClock, s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", errBadClock, s)
	}
	return Clock(hh*60 + mm), nil
}

// ClockOf returns the minute-of-day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant at this time of day on day's calendar date.
func (c Clock) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

// Occurrence is a single concrete meeting of a recurring class.
type Occurrence struct {
	ClassID string `json:"classId"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	Color   string `json:"color"`

	// InstanceKey uniquely identifies one meeting, derived from the class
	// ID and the local start time.
	InstanceKey string `json:"instanceKey"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
