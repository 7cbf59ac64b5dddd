package schedule

import (
	"fmt"
	"slices"
	"time"

	"studycal/internal/model"
)

// TopSubjectsLimit caps the top subjects ranking.
const TopSubjectsLimit = 3

// StudyTotal is the summed study time over a set of sessions.
type StudyTotal struct {
	Minutes  int `json:"minutes"`
	Sessions int `json:"sessions"`
}

func (t StudyTotal) Hours() int     { return t.Minutes / 60 }
func (t StudyTotal) Remainder() int { return t.Minutes % 60 }
func (t StudyTotal) String() string { return FormatMinutes(t.Minutes) }

// FormatMinutes renders minutes as "2h 5m".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// SubjectTotal is one row of the top subjects ranking.
type SubjectTotal struct {
	Subject string `json:"subject"`
	Minutes int    `json:"minutes"`
}

// WeekSessions returns the sessions dated inside now's week window, in
// collection order.
func WeekSessions(sessions []model.StudySession, now time.Time) []model.StudySession {
	w := WeekOf(now)
	out := make([]model.StudySession, 0)
	for _, s := range sessions {
		if w.ContainsDate(s.Date) {
			out = append(out, s)
		}
	}
	return out
}

// WeeklyStudy sums the duration of this week's sessions.
func WeeklyStudy(sessions []model.StudySession, now time.Time) StudyTotal {
	var total StudyTotal
	for _, s := range WeekSessions(sessions, now) {
		total.Minutes += s.Duration
		total.Sessions++
	}
	return total
}

// TopSubjects ranks this week's subjects by total minutes, descending, and
// returns at most TopSubjectsLimit rows. Exact ties keep first-seen order.
func TopSubjects(sessions []model.StudySession, now time.Time) []SubjectTotal {
	index := make(map[string]int)
	totals := make([]SubjectTotal, 0)
	for _, s := range WeekSessions(sessions, now) {
		i, ok := index[s.Subject]
		if !ok {
			i = len(totals)
			index[s.Subject] = i
			totals = append(totals, SubjectTotal{Subject: s.Subject})
		}
		totals[i].Minutes += s.Duration
	}

	slices.SortStableFunc(totals, func(a, b SubjectTotal) int {
		return b.Minutes - a.Minutes
	})
	if len(totals) > TopSubjectsLimit {
		totals = totals[:TopSubjectsLimit]
	}
	return totals
}
