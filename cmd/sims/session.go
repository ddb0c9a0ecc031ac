package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nkiryanov/sims/internal/tokenstore"
	"github.com/nkiryanov/sims/internal/tokenstore/redis"
	"github.com/nkiryanov/sims/internal/tokenstore/sqlite"
)

const sqliteFileName = "session.db"

func noClose() error { return nil }

// Open durable storage of the session chosen by config. closeFn must be called when done
func openSessionStorage(ctx context.Context, c *Config) (storage tokenstore.Storage, closeFn func() error, err error) {
	switch c.SessionStore {
	case storeMemory:
		return tokenstore.NewMemoryStorage(), noClose, nil

	case storeFile:
		path := c.SessionPath
		if path == "" {
			if path, err = tokenstore.DefaultFilePath(); err != nil {
				return nil, nil, err
			}
		}
		return tokenstore.NewFileStorage(path), noClose, nil

	case storeSQLite:
		path := c.SessionPath
		if path == "" {
			def, err := tokenstore.DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = filepath.Join(filepath.Dir(def), sqliteFileName)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("can't create session dir: %w", err)
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case storeRedis:
		s, err := redis.Dial(ctx, c.RedisAddr, redis.Config{})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown session store %q", c.SessionStore)
	}
}
