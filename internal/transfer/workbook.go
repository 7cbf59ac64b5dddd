package transfer

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	classesSheet  = "Classes"
	sessionsSheet = "Study Sessions"
)

// WorkbookContentType is the MIME type of WriteWorkbook's output.
const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbookFileName mirrors FileName with an .xlsx extension.
func WorkbookFileName(jsonName string) string {
	return strings.TrimSuffix(jsonName, ".json") + ".xlsx"
}

// WriteWorkbook writes doc as a spreadsheet with one sheet per collection.
// A session's class column shows the class name when the referenced class
// still exists and the raw id otherwise.
func WriteWorkbook(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", classesSheet); err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}
	if _, err := f.NewSheet(sessionsSheet); err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}

	classHeader := []any{"ID", "Emoji", "Name", "Start", "End", "Days", "Color"}
	if err := f.SetSheetRow(classesSheet, "A1", &classHeader); err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}
	names := make(map[string]string, len(doc.Classes))
	for i, c := range doc.Classes {
		names[c.ID] = c.Name
		row := []any{c.ID, c.Emoji, c.Name, c.StartTime, c.EndTime, strings.Join(c.Days, ", "), c.Color}
		if err := setRow(f, classesSheet, i+2, row); err != nil {
			return err
		}
	}

	sessionHeader := []any{"ID", "Date", "Subject", "Minutes", "Tag", "Class", "Notes"}
	if err := f.SetSheetRow(sessionsSheet, "A1", &sessionHeader); err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}
	for i, s := range doc.StudySessions {
		class := s.ClassID
		if n, ok := names[s.ClassID]; ok {
			class = n
		}
		row := []any{s.ID, s.Date, s.Subject, s.Duration, string(s.Tag), class, s.Notes}
		if err := setRow(f, sessionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("transfer: workbook write: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("transfer: workbook: %w", err)
	}
	return nil
}
