package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	appLog "studycal/internal/log"
)

// redisPrefix namespaces keys so a shared Redis can host other data.
const redisPrefix = "studycal:"

// Redis stores each key as a plain string value without expiry.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects and pings the server so misconfiguration surfaces at
// startup instead of on the first mutation.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", addr, err)
	}
	appLog.Info("store: connected to redis", "addr", addr, "db", db)
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, redisPrefix+key, value, 0).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
