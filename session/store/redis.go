package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// RedisStore persists session snapshots as JSON values under a key prefix,
// with an optional TTL so abandoned conversations expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // 0 means no expiration
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "rehab-orchestra:session:",
		TTL:    24 * time.Hour,
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save stores the snapshot and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, snap *session.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", errors.ErrInvalidInput)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session in Redis: %w", err)
	}
	return nil
}

// Load returns the snapshot for id.
func (s *RedisStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session from Redis: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot for id.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session from Redis: %w", err)
	}
	return nil
}

// List scans for all session keys under the prefix.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions in Redis: %w", err)
	}
	return ids, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
