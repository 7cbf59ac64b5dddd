package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/transfer"
)

type fixedSource struct {
	classes []model.Class
}

func (f fixedSource) ExportSnapshot(now time.Time) transfer.Document {
	return transfer.Export(f.classes, nil, now)
}

func TestRunOnceWritesImportableSnapshot(t *testing.T) {
	dir := t.TempDir()
	src := fixedSource{classes: []model.Class{{ID: "c1", Name: "Calculus"}}}
	s := New(config.BackupConfig{Dir: dir, Keep: 5}, src, time.UTC)

	path, err := s.RunOnce(time.Date(2024, 6, 12, 3, 0, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if filepath.Base(path) != "student-calendar-2024-06-12-030005.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := transfer.Parse(data)
	if err != nil {
		t.Fatalf("snapshot not importable: %v", err)
	}
	if len(doc.Classes) != 1 || doc.Classes[0].Name != "Calculus" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestRunOncePrunesOldest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := New(config.BackupConfig{Dir: dir, Keep: 2}, fixedSource{}, time.UTC)

	start := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if _, err := s.RunOnce(start.AddDate(0, 0, i)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"notes.txt", "student-calendar-2024-06-03-030000.json", "student-calendar-2024-06-04-030000.json"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(config.BackupConfig{Cron: "every tuesday", Dir: t.TempDir()}, fixedSource{}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}

func TestStartStop(t *testing.T) {
	disabled := New(config.BackupConfig{}, fixedSource{}, nil)
	if err := disabled.Start(); err != nil {
		t.Fatalf("empty schedule should disable, got %v", err)
	}
	disabled.Stop(context.Background())

	s := New(config.BackupConfig{Cron: "0 3 * * *", Dir: t.TempDir()}, fixedSource{}, time.UTC)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestCronLoggerUsesAppLog(t *testing.T) {
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	appLog.SetLevel(appLog.LevelDebug)
	t.Cleanup(func() {
		appLog.SetOutput(os.Stderr)
		appLog.SetLevel(appLog.LevelInfo)
	})

	var l cronLogger
	l.Info("skip", "entry", 1)
	l.Error(errors.New("panic"), "job failed")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] cron: skip entry=1") {
		t.Errorf("info line = %q", out)
	}
	if !strings.Contains(out, "[ERROR] cron: job failed err=panic") {
		t.Errorf("error line = %q", out)
	}
}
