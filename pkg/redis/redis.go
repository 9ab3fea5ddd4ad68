// Package redis connects the route cache to Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/map-directions/pkg/config"
)

// Nil is returned by GetString when the key does not exist.
var Nil = redis.Nil

// Store is the subset of Redis the route cache needs.
type Store interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

var _ Store = (*Client)(nil)

// Client wraps a go-redis client. The embedded client stays reachable for
// health checks.
type Client struct {
	*redis.Client
}

// NewRedisClient dials Redis with the configured timeouts and pings it once.
// A failed ping closes the client.
func NewRedisClient(cfg *config.RedisConfig, timeouts config.TimeoutConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  timeouts.RedisReadTimeoutDuration(),
		WriteTimeout: timeouts.RedisWriteTimeoutDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.RedisOperationTimeoutDuration())
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(client *redis.Client) *Client {
	return &Client{Client: client}
}

// IsNil reports whether err is a cache miss.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// GetString returns the value at key, or Nil when it is absent.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	return c.Get(ctx, key).Result()
}

// SetWithExpiration stores value at key for the given duration.
func (c *Client) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Set(ctx, key, value, expiration).Err()
}
