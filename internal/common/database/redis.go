package database

import (
	"context"
	"fmt"
	"time"

	"scoutly/internal/common/config"
	"scoutly/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	return &RedisClient{Client: rdb}
}

// ConnectRedis creates the client and waits until the server answers.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, policy RetryPolicy, log logger.Logger) (*RedisClient, error) {
	rc := NewRedis(cfg)
	if err := Retry(ctx, policy, log, "redis connection", rc.Ping); err != nil {
		rc.Close()
		return nil, err
	}
	return rc, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
