// Package redis keeps session entries in a single Redis hash.
// Useful when several CLI hosts or a kiosk share one session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "sims"

type Config struct {
	Prefix string        // key prefix; "sims" if empty
	TTL    time.Duration // expiration of the hash; zero keeps it forever
}

type Storage struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

func New(rdb redis.UniversalClient, cfg Config) *Storage {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Storage{
		rdb: rdb,
		key: prefix + ":session",
		ttl: cfg.TTL,
	}
}

// Dial client and check it answers
func Dial(ctx context.Context, addr string, cfg Config) (*Storage, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return New(rdb, cfg), nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}

func (s *Storage) Load(ctx context.Context) (map[string]string, error) {
	entries, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return entries, nil
}

func (s *Storage) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		values = append(values, k, v)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.key, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}
