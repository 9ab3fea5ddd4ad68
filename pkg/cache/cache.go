// Package cache stores JSON values in Redis under a key prefix.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisclient "github.com/richxcame/map-directions/pkg/redis"
	"github.com/richxcame/map-directions/pkg/tracing"
)

const tracerName = "directions-cache"

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis  redisclient.Store
	prefix string
}

// NewManager creates a new cache manager. Keys are namespaced with prefix.
func NewManager(redis redisclient.Store, prefix string) *Manager {
	return &Manager{redis: redis, prefix: prefix}
}

// Key returns the namespaced form of key.
func (m *Manager) Key(key string) string {
	if m.prefix == "" {
		return key
	}
	return m.prefix + ":" + key
}

// Get retrieves a cached value and unmarshals it into result. A miss is
// reported as (false, nil).
func (m *Manager) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	var data string
	err := tracing.TraceRedisCommand(ctx, tracerName, "GET", m.Key(key), func(ctx context.Context) error {
		var err error
		data, err = m.redis.GetString(ctx, m.Key(key))
		return err
	})
	if err != nil {
		if redisclient.IsNil(err) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return tracing.TraceRedisCommand(ctx, tracerName, "SET", m.Key(key), func(ctx context.Context) error {
		return m.redis.SetWithExpiration(ctx, m.Key(key), string(data), ttl)
	})
}
