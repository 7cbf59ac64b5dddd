package schedule

import (
	"time"

	"studycal/internal/model"
)

// Dashboard is the summary shown on the landing tab.
type Dashboard struct {
	TotalClasses     int                  `json:"totalClasses"`
	TodaysClasses    []model.Class        `json:"todaysClasses"`
	TodaysClassCount int                  `json:"todaysClassCount"`
	NextClass        *model.Class         `json:"nextClass"`
	WeekStart        string               `json:"weekStart"`
	WeekEnd          string               `json:"weekEnd"`
	Study            StudyTotal           `json:"study"`
	StudyHours       int                  `json:"studyHours"`
	StudyMinutes     int                  `json:"studyMinutes"`
	StudyLabel       string               `json:"studyLabel"`
	TopSubjects      []SubjectTotal       `json:"topSubjects"`
	WeekSessions     []model.StudySession `json:"weekSessions"`
}

// BuildDashboard computes every dashboard statistic for now.
func BuildDashboard(classes []model.Class, sessions []model.StudySession, now time.Time) Dashboard {
	w := WeekOf(now)
	today := TodaysClasses(classes, now)
	study := WeeklyStudy(sessions, now)

	d := Dashboard{
		TotalClasses:     len(classes),
		TodaysClasses:    today,
		TodaysClassCount: len(today),
		WeekStart:        w.Start.Format(model.DateLayout),
		WeekEnd:          w.End.Format(model.DateLayout),
		Study:            study,
		StudyHours:       study.Hours(),
		StudyMinutes:     study.Remainder(),
		StudyLabel:       study.String(),
		TopSubjects:      TopSubjects(sessions, now),
		WeekSessions:     WeekSessions(sessions, now),
	}
	if next, ok := NextClass(classes, now); ok {
		d.NextClass = &next
	}
	return d
}

// CalendarDay is one column of the weekly grid.
type CalendarDay struct {
	Date       string               `json:"date"`
	Weekday    string               `json:"weekday"`
	Abbr       string               `json:"abbr"`
	DayOfMonth int                  `json:"dayOfMonth"`
	IsToday    bool                 `json:"isToday"`
	Classes    []model.Class        `json:"classes"`
	Sessions   []model.StudySession `json:"sessions"`
}

// Calendar is the weekly grid for the week containing some reference date.
type Calendar struct {
	Start string        `json:"start"`
	End   string        `json:"end"`
	Label string        `json:"label"`
	Days  []CalendarDay `json:"days"`
}

// BuildCalendar lays out the week containing ref. now only decides which
// cell is flagged as today.
func BuildCalendar(classes []model.Class, sessions []model.StudySession, ref, now time.Time) Calendar {
	w := WeekOf(ref)
	today := now.In(ref.Location()).Format(model.DateLayout)

	cal := Calendar{
		Start: w.Start.Format(model.DateLayout),
		End:   w.End.Format(model.DateLayout),
		Label: w.Label(),
		Days:  make([]CalendarDay, 0, 7),
	}
	for _, day := range w.Days() {
		name := model.WeekdayName(day.Weekday())
		date := day.Format(model.DateLayout)
		cal.Days = append(cal.Days, CalendarDay{
			Date:       date,
			Weekday:    name,
			Abbr:       name[:3],
			DayOfMonth: day.Day(),
			IsToday:    date == today,
			Classes:    ClassesForDay(classes, name),
			Sessions:   SessionsForDate(sessions, day),
		})
	}
	return cal
}
