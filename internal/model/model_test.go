package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:00", 540, false},
		{"9:05", 545, false},
		{"23:59", 1439, false},
		{"00:00", 0, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"1200", 0, true},
		{"", 0, true},
		{"ab:cd", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestClockStringAndOn(t *testing.T) {
	c := Clock(14*60 + 5)
	if c.String() != "14:05" {
		t.Errorf("String = %q", c.String())
	}
	day := time.Date(2024, 6, 12, 23, 11, 0, 0, time.UTC)
	got := c.On(day)
	want := time.Date(2024, 6, 12, 14, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}
	if ClockOf(day) != Clock(23*60+11) {
		t.Errorf("ClockOf = %d", ClockOf(day))
	}
}

func TestWeekdayNames(t *testing.T) {
	if WeekdayName(time.Sunday) != "Sunday" || WeekdayName(time.Saturday) != "Saturday" {
		t.Fatal("weekday names must be English literals")
	}
	d, ok := ParseWeekday("Wednesday")
	if !ok || d != time.Wednesday {
		t.Errorf("ParseWeekday(Wednesday) = %v, %v", d, ok)
	}
	if _, ok := ParseWeekday("wednesday"); ok {
		t.Error("weekday names are case sensitive")
	}
}

func TestTags(t *testing.T) {
	for _, tag := range Tags {
		if !tag.Valid() {
			t.Errorf("%q should be valid", tag)
		}
	}
	if Tag("leisure").Valid() {
		t.Error("unexpected tag accepted")
	}
	if TagExamPrep.Label() != "📝 Exam Prep" {
		t.Errorf("label = %q", TagExamPrep.Label())
	}
}

func TestMeetsOn(t *testing.T) {
	c := Class{Days: []string{"Monday", "Thursday"}}
	if !c.MeetsOn("Thursday") || c.MeetsOn("Friday") {
		t.Errorf("MeetsOn mismatch for %v", c.Days)
	}
}
