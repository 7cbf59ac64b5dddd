// Package backup writes periodic export snapshots to disk on a cron
// schedule and prunes old ones.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/transfer"
)

const filePrefix = "student-calendar-"

// Source provides the document to back up.
type Source interface {
	ExportSnapshot(now time.Time) transfer.Document
}

// Scheduler runs RunOnce on cfg.Cron.
type Scheduler struct {
	cfg  config.BackupConfig
	src  Source
	loc  *time.Location
	cron *cron.Cron
}

// New builds a scheduler; loc decides both the cron wall clock and the
// dates in snapshot names. A nil loc means time.Local.
func New(cfg config.BackupConfig, src Source, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{cfg: cfg, src: src, loc: loc}
}

// Start registers the cron job. An empty schedule disables backups.
func (s *Scheduler) Start() error {
	if s.cfg.Cron == "" {
		appLog.Info("backup: schedule empty, scheduled backups disabled")
		return nil
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)
	_, err := c.AddFunc(s.cfg.Cron, func() {
		if _, err := s.RunOnce(time.Now()); err != nil {
			appLog.Error("backup: run failed", err, "dir", s.cfg.Dir)
		}
	})
	if err != nil {
		return fmt.Errorf("backup: invalid schedule %q: %w", s.cfg.Cron, err)
	}

	s.cron = c
	c.Start()
	appLog.Info("backup: scheduler started", "schedule", s.cfg.Cron, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	return nil
}

// Stop halts the scheduler and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		appLog.Warn("backup: stop timed out waiting for running job")
	}
}

// RunOnce writes one snapshot and prunes the directory down to cfg.Keep
// snapshots. It returns the written path.
func (s *Scheduler) RunOnce(now time.Time) (string, error) {
	now = now.In(s.loc)
	data, err := transfer.Marshal(s.src.ExportSnapshot(now))
	if err != nil {
		return "", err
	}

	name := strings.TrimSuffix(transfer.FileName(now), ".json") + "-" + now.UTC().Format("150405") + ".json"
	path := filepath.Join(s.cfg.Dir, name)
	if err := config.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", path, err)
	}
	appLog.Info("backup: snapshot written", "path", path, "bytes", len(data))

	if err := prune(s.cfg.Dir, s.cfg.Keep); err != nil {
		appLog.Error("backup: prune failed", err, "dir", s.cfg.Dir)
	}
	return path, nil
}

// prune removes all but the newest keep snapshots. Snapshot names embed
// date and time, so lexical order is chronological.
func prune(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) <= keep {
		return nil
	}

	sort.Strings(names)
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return err
		}
		appLog.Debug("backup: pruned snapshot", "name", n)
	}
	return nil
}
