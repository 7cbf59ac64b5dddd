// Package transfer implements the export/import document: a versioned JSON
// snapshot of both collections used for backups and moving data between
// installs.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studycal/internal/model"
)

// Version is written into every exported document. Imports do not check it.
const Version = "1.0"

// ErrInvalidFormat marks an import rejected for structural reasons. The
// wrapping error's message carries the specific reason.
var ErrInvalidFormat = errors.New("invalid data format")

// Document is the export/import shape.
type Document struct {
	Classes       []model.Class        `json:"classes"`
	StudySessions []model.StudySession `json:"studySessions"`
	ExportDate    string               `json:"exportDate"`
	Version       string               `json:"version"`
}

// Export snapshots the collections as of now. Records are passed through
// unchanged.
func Export(classes []model.Class, sessions []model.StudySession, now time.Time) Document {
	doc := Document{
		Classes:       classes,
		StudySessions: sessions,
		ExportDate:    now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:       Version,
	}
	if doc.Classes == nil {
		doc.Classes = []model.Class{}
	}
	if doc.StudySessions == nil {
		doc.StudySessions = []model.StudySession{}
	}
	return doc
}

// Marshal renders doc pretty-printed with two-space indentation, the form
// offered for copy/paste and written to export files.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("transfer: marshal: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FileName is the suggested download name for an export taken at now. The
// date is the UTC date, matching ExportDate.
func FileName(now time.Time) string {
	return "student-calendar-" + now.UTC().Format(model.DateLayout) + ".json"
}

// Parse validates an import document. Only the top-level shape is checked:
// the text must be JSON with "classes" and "studySessions" arrays. Every
// failure wraps ErrInvalidFormat.
func Parse(data []byte) (Document, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	fields, _ := root.(map[string]any)

	if _, ok := fields["classes"].([]any); !ok {
		return Document{}, fmt.Errorf("%w: missing or invalid classes array", ErrInvalidFormat)
	}
	if _, ok := fields["studySessions"].([]any); !ok {
		return Document{}, fmt.Errorf("%w: missing or invalid studySessions array", ErrInvalidFormat)
	}

	// The records themselves are not validated, but they still have to fit
	// the typed model (e.g. a string duration cannot be held).
	var raw struct {
		Classes       []model.Class        `json:"classes"`
		StudySessions []model.StudySession `json:"studySessions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	doc := Document{
		Classes:       raw.Classes,
		StudySessions: raw.StudySessions,
	}
	doc.ExportDate, _ = fields["exportDate"].(string)
	doc.Version, _ = fields["version"].(string)
	return doc, nil
}
