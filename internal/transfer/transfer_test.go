package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"studycal/internal/model"
)

func sampleClasses() []model.Class {
	return []model.Class{
		{ID: "c1", Name: "Calculus", Emoji: "🧮", StartTime: "09:00", EndTime: "10:30", Days: []string{"Monday", "Wednesday"}, Color: "blue"},
		{ID: "c2", Name: "Art & Design", Emoji: "🎨", StartTime: "14:00", EndTime: "16:00", Days: []string{"Friday"}, Color: "pink"},
	}
}

func sampleSessions() []model.StudySession {
	return []model.StudySession{
		{ID: "s1", Subject: "Calculus", Duration: 45, Notes: "limits <hard>", Date: "2024-06-10", Tag: model.TagRevision, ClassID: "c1"},
		{ID: "s2", Subject: "Reading", Duration: 30, Date: "2024-06-11", Tag: model.TagResearch},
	}
}

func TestExportShape(t *testing.T) {
	now := time.Date(2024, 6, 12, 8, 30, 0, 0, time.UTC)
	data, err := Marshal(Export(sampleClasses(), sampleSessions(), now))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(fields) != 4 {
		t.Errorf("expected exactly 4 top-level fields, got %d", len(fields))
	}
	if string(fields["version"]) != `"1.0"` {
		t.Errorf("version = %s", fields["version"])
	}
	if string(fields["exportDate"]) != `"2024-06-12T08:30:00.000Z"` {
		t.Errorf("exportDate = %s", fields["exportDate"])
	}
	if !strings.Contains(string(data), "\n  \"classes\": [") {
		t.Errorf("expected two-space pretty printing:\n%s", data)
	}
	if !strings.Contains(string(data), "Art & Design") || !strings.Contains(string(data), "<hard>") {
		t.Error("values must pass through unescaped")
	}
	if strings.Contains(string(data), `"classId": ""`) {
		t.Error("absent classId should be omitted")
	}
}

func TestExportEmptyCollectionsAreArrays(t *testing.T) {
	data, err := Marshal(Export(nil, nil, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"classes": []`) || !strings.Contains(string(data), `"studySessions": []`) {
		t.Errorf("empty collections must export as []:\n%s", data)
	}
	if _, err := Parse(data); err != nil {
		t.Errorf("empty export should import: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	classes, sessions := sampleClasses(), sampleSessions()
	data, err := Marshal(Export(classes, sessions, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(doc.Classes, classes) {
		t.Errorf("classes differ:\n got %+v\nwant %+v", doc.Classes, classes)
	}
	if !reflect.DeepEqual(doc.StudySessions, sessions) {
		t.Errorf("sessions differ:\n got %+v\nwant %+v", doc.StudySessions, sessions)
	}
	if doc.Version != Version {
		t.Errorf("version = %q", doc.Version)
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		reason string
	}{
		{"not json", "not json", "invalid character"},
		{"empty object", "{}", "missing or invalid classes array"},
		{"top-level array", "[]", "missing or invalid classes array"},
		{"null classes", `{"classes": null, "studySessions": []}`, "missing or invalid classes array"},
		{"object classes", `{"classes": {}, "studySessions": []}`, "missing or invalid classes array"},
		{"missing sessions", `{"classes": []}`, "missing or invalid studySessions array"},
		{"string sessions", `{"classes": [], "studySessions": "x"}`, "missing or invalid studySessions array"},
		{"record type mismatch", `{"classes": [], "studySessions": [{"duration": "long"}]}`, "cannot unmarshal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.in))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.reason) {
				t.Errorf("error %q should mention %q", err, tc.reason)
			}
		})
	}
}

func TestParseIsStructuralOnly(t *testing.T) {
	in := `{"classes": [{"id": "x", "startTime": "late"}], "studySessions": [{"tag": "napping", "duration": -5}], "version": "0.1", "extra": true}`
	doc, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("malformed records should pass through: %v", err)
	}
	if doc.Classes[0].StartTime != "late" || doc.StudySessions[0].Tag != "napping" || doc.Version != "0.1" {
		t.Errorf("doc = %+v", doc)
	}

	// Unknown record fields are dropped on decode.
	doc, err = Parse([]byte(`{"classes": [{"id": "x", "room": "B12"}], "studySessions": []}`))
	if err != nil || len(doc.Classes) != 1 || doc.Classes[0].ID != "x" {
		t.Errorf("unknown field: doc = %+v, err = %v", doc, err)
	}

	// Values the typed records cannot hold are rejected as a whole.
	for _, in := range []string{
		`{"classes": [{"days": "Monday"}], "studySessions": []}`,
		`{"classes": [], "studySessions": [{"duration": 30.5}]}`,
		`{"classes": [], "studySessions": [{"duration": "30"}]}`,
	} {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Parse(%s) err = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestFileNames(t *testing.T) {
	name := FileName(time.Date(2024, 6, 12, 23, 0, 0, 0, time.UTC))
	if name != "student-calendar-2024-06-12.json" {
		t.Errorf("FileName = %q", name)
	}
	if WorkbookFileName(name) != "student-calendar-2024-06-12.xlsx" {
		t.Errorf("WorkbookFileName = %q", WorkbookFileName(name))
	}

	// 23:30 in New York is already the next day in UTC; the name follows
	// exportDate.
	ny := time.FixedZone("EDT", -4*60*60)
	late := time.Date(2024, 6, 12, 23, 30, 0, 0, ny)
	if got := FileName(late); got != "student-calendar-2024-06-13.json" {
		t.Errorf("FileName(late) = %q", got)
	}
	if doc := Export(nil, nil, late); !strings.HasPrefix(doc.ExportDate, "2024-06-13T") {
		t.Errorf("ExportDate = %q", doc.ExportDate)
	}
}

func TestWriteWorkbook(t *testing.T) {
	sessions := append(sampleSessions(), model.StudySession{ID: "s3", Subject: "Old", Duration: 10, Date: "2024-06-01", Tag: model.TagProductive, ClassID: "gone"})
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, Export(sampleClasses(), sessions, time.Now())); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	classRows, err := f.GetRows("Classes")
	if err != nil {
		t.Fatal(err)
	}
	if len(classRows) != 3 || classRows[1][2] != "Calculus" || classRows[1][5] != "Monday, Wednesday" {
		t.Errorf("class rows = %v", classRows)
	}

	sessionRows, err := f.GetRows("Study Sessions")
	if err != nil {
		t.Fatal(err)
	}
	if len(sessionRows) != 4 {
		t.Fatalf("session rows = %v", sessionRows)
	}
	if sessionRows[1][5] != "Calculus" || sessionRows[1][3] != "45" {
		t.Errorf("linked session row = %v", sessionRows[1])
	}
	if sessionRows[3][5] != "gone" {
		t.Errorf("dangling class id should be kept verbatim, got %v", sessionRows[3])
	}
}
