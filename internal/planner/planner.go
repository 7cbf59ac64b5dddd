// Package planner owns the live class and study session collections. The
// collection-level operations (AddClass, AddStudySession, DeleteClass) are
// pure and never modify their input; Planner wraps them with persistence.
package planner

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/store"
	"studycal/internal/transfer"
)

// AddClass returns a new collection with c appended.
func AddClass(classes []model.Class, c model.Class) []model.Class {
	out := make([]model.Class, 0, len(classes)+1)
	out = append(out, classes...)
	return append(out, c)
}

// AddStudySession returns a new collection with s appended.
func AddStudySession(sessions []model.StudySession, s model.StudySession) []model.StudySession {
	out := make([]model.StudySession, 0, len(sessions)+1)
	out = append(out, sessions...)
	return append(out, s)
}

// DeleteClass returns a new collection without the class id, and whether
// anything was removed. Sessions referring to the class are not touched.
func DeleteClass(classes []model.Class, id string) ([]model.Class, bool) {
	out := make([]model.Class, 0, len(classes))
	removed := false
	for _, c := range classes {
		if c.ID == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out, removed
}

// Option configures a Planner.
type Option func(*Planner)

// WithIDFunc replaces the default UUID generator.
func WithIDFunc(fn func() string) Option {
	return func(p *Planner) { p.newID = fn }
}

// Planner is the single owner of application state. Every mutation builds
// a new collection, persists it, and only then swaps it in, so a failed
// write leaves the previous state in place.
type Planner struct {
	store store.Store
	newID func() string

	mu       sync.RWMutex
	classes  []model.Class
	sessions []model.StudySession
}

// New loads both collections from s. Keys that were never written start
// out empty.
func New(ctx context.Context, s store.Store, opts ...Option) (*Planner, error) {
	classes, sessions, err := store.LoadCollections(ctx, s)
	if err != nil {
		return nil, err
	}
	p := &Planner{
		store:    s,
		newID:    uuid.NewString,
		classes:  classes,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Classes returns a copy of the current class collection.
func (p *Planner) Classes() []model.Class {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Class{}, p.classes...)
}

// Sessions returns a copy of the current study session collection.
func (p *Planner) Sessions() []model.StudySession {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.StudySession{}, p.sessions...)
}

// Snapshot returns copies of both collections taken under one lock.
func (p *Planner) Snapshot() ([]model.Class, []model.StudySession) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Class{}, p.classes...), append([]model.StudySession{}, p.sessions...)
}

// AddClass assigns c a fresh id (any id on c is ignored) and stores it.
func (p *Planner) AddClass(ctx context.Context, c model.Class) (model.Class, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.ID = p.uniqueID(func(id string) bool {
		for _, existing := range p.classes {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	next := AddClass(p.classes, c)
	if err := store.SaveClasses(ctx, p.store, next); err != nil {
		return model.Class{}, err
	}
	p.classes = next
	appLog.Info("class added", "id", c.ID, "name", c.Name)
	return c, nil
}

// AddStudySession assigns s a fresh id (any id on s is ignored) and stores it.
func (p *Planner) AddStudySession(ctx context.Context, s model.StudySession) (model.StudySession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.ID = p.uniqueID(func(id string) bool {
		for _, existing := range p.sessions {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	next := AddStudySession(p.sessions, s)
	if err := store.SaveSessions(ctx, p.store, next); err != nil {
		return model.StudySession{}, err
	}
	p.sessions = next
	appLog.Info("study session added", "id", s.ID, "subject", s.Subject, "minutes", s.Duration)
	return s, nil
}

// DeleteClass removes the class id. Deleting an unknown id is a no-op and
// reports false.
func (p *Planner) DeleteClass(ctx context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next, removed := DeleteClass(p.classes, id)
	if !removed {
		return false, nil
	}
	if err := store.SaveClasses(ctx, p.store, next); err != nil {
		return false, err
	}
	p.classes = next
	appLog.Info("class deleted", "id", id)
	return true, nil
}

// ImportReplace parses data as an export document and, if it is valid,
// replaces both collections with its contents. A rejected document wraps
// transfer.ErrInvalidFormat and leaves the current state untouched.
func (p *Planner) ImportReplace(ctx context.Context, data []byte) (transfer.Document, error) {
	doc, err := transfer.Parse(data)
	if err != nil {
		appLog.Warn("import rejected", "reason", err.Error())
		return transfer.Document{}, err
	}
	if err := p.replace(ctx, doc.Classes, doc.StudySessions); err != nil {
		return transfer.Document{}, err
	}
	appLog.Info("import applied",
		"classes", len(doc.Classes),
		"sessions", len(doc.StudySessions),
		"version", doc.Version,
		"export_date", doc.ExportDate,
	)
	return doc, nil
}

// ExportSnapshot builds an export document of the current state.
func (p *Planner) ExportSnapshot(now time.Time) transfer.Document {
	classes, sessions := p.Snapshot()
	return transfer.Export(classes, sessions, now)
}

func (p *Planner) replace(ctx context.Context, classes []model.Class, sessions []model.StudySession) error {
	if classes == nil {
		classes = []model.Class{}
	}
	if sessions == nil {
		sessions = []model.StudySession{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := store.SaveClasses(ctx, p.store, classes); err != nil {
		return err
	}
	if err := store.SaveSessions(ctx, p.store, sessions); err != nil {
		// Put the stored classes back so the store matches memory again.
		if rerr := store.SaveClasses(ctx, p.store, p.classes); rerr != nil {
			appLog.Error("import rollback failed", rerr)
		}
		return fmt.Errorf("planner: import: %w", err)
	}
	p.classes = classes
	p.sessions = sessions
	return nil
}

// uniqueID draws an id from newID and suffixes it until taken reports it
// free. Must be called with p.mu held.
func (p *Planner) uniqueID(taken func(string) bool) string {
	base := p.newID()
	id := base
	for n := 2; taken(id); n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	return id
}
