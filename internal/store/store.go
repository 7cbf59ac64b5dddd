// Package store persists the two record collections in a key-value
// backend. Each collection is stored as JSON text under a fixed key.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"studycal/internal/config"
	appLog "studycal/internal/log"
	"studycal/internal/model"
)

// Keys under which the collections are stored.
const (
	KeyClasses  = "student-calendar-classes"
	KeySessions = "student-calendar-sessions"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key-value store of JSON text.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		return NewFile(cfg.Dir)
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// LoadCollections reads both collections. A key that was never written
// yields an empty collection rather than an error.
func LoadCollections(ctx context.Context, s Store) ([]model.Class, []model.StudySession, error) {
	classes := make([]model.Class, 0)
	if err := load(ctx, s, KeyClasses, &classes); err != nil {
		return nil, nil, err
	}
	sessions := make([]model.StudySession, 0)
	if err := load(ctx, s, KeySessions, &sessions); err != nil {
		return nil, nil, err
	}
	appLog.Info("store: collections loaded", "classes", len(classes), "sessions", len(sessions))
	return classes, sessions, nil
}

// SaveClasses overwrites the stored class collection.
func SaveClasses(ctx context.Context, s Store, classes []model.Class) error {
	return save(ctx, s, KeyClasses, classes)
}

// SaveSessions overwrites the stored study session collection.
func SaveSessions(ctx context.Context, s Store, sessions []model.StudySession) error {
	return save(ctx, s, KeySessions, sessions)
}

func load(ctx context.Context, s Store, key string, dst any) error {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

func save[T any](ctx context.Context, s Store, key string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}
