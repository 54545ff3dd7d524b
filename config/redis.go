package config

import (
	"context"
	"fmt"
	"time"

	"yogastore-backend/session"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// NewSessionStore uses Redis when REDIS_URL is set and process memory
// otherwise.
func NewSessionStore(cfg *Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		logrus.Warn("REDIS_URL not set, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return session.NewRedisStore(client), nil
}
