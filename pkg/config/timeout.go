package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timeout defaults, in seconds.
const (
	DefaultHTTPClientTimeout          = 30
	DefaultRedisOperationTimeout      = 5
	DefaultRedisReadTimeout           = 3
	DefaultRedisWriteTimeout          = 3
	DefaultWebSocketConnectionTimeout = 60
	DefaultRequestTimeout             = 30

	maxTimeoutSeconds = 300
)

// TimeoutConfig holds per-concern timeouts in seconds.
type TimeoutConfig struct {
	HTTPClientTimeout          int
	RedisOperationTimeout      int
	RedisReadTimeout           int
	RedisWriteTimeout          int
	WebSocketConnectionTimeout int
	DefaultRequestTimeout      int
	// RouteOverrides maps "METHOD:/path" to a request timeout.
	RouteOverrides map[string]int
}

func loadTimeoutConfig() (TimeoutConfig, error) {
	cfg := TimeoutConfig{
		HTTPClientTimeout:          getEnvAsInt("HTTP_CLIENT_TIMEOUT", DefaultHTTPClientTimeout),
		RedisOperationTimeout:      getEnvAsInt("REDIS_OPERATION_TIMEOUT", DefaultRedisOperationTimeout),
		RedisReadTimeout:           getEnvAsInt("REDIS_READ_TIMEOUT", DefaultRedisReadTimeout),
		RedisWriteTimeout:          getEnvAsInt("REDIS_WRITE_TIMEOUT", DefaultRedisWriteTimeout),
		WebSocketConnectionTimeout: getEnvAsInt("WS_CONNECTION_TIMEOUT", DefaultWebSocketConnectionTimeout),
		DefaultRequestTimeout:      getEnvAsInt("DEFAULT_REQUEST_TIMEOUT", DefaultRequestTimeout),
	}

	limits := []struct {
		key   string
		value int
	}{
		{"HTTP_CLIENT_TIMEOUT", cfg.HTTPClientTimeout},
		{"REDIS_OPERATION_TIMEOUT", cfg.RedisOperationTimeout},
		{"REDIS_READ_TIMEOUT", cfg.RedisReadTimeout},
		{"REDIS_WRITE_TIMEOUT", cfg.RedisWriteTimeout},
		{"WS_CONNECTION_TIMEOUT", cfg.WebSocketConnectionTimeout},
		{"DEFAULT_REQUEST_TIMEOUT", cfg.DefaultRequestTimeout},
	}
	for _, limit := range limits {
		if limit.value > maxTimeoutSeconds {
			return cfg, fmt.Errorf("%s value %d exceeds maximum of %d seconds", limit.key, limit.value, maxTimeoutSeconds)
		}
	}

	if raw := getEnv("ROUTE_TIMEOUT_OVERRIDES", ""); raw != "" {
		var overrides map[string]int
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return cfg, fmt.Errorf("invalid ROUTE_TIMEOUT_OVERRIDES value: %w", err)
		}

		cfg.RouteOverrides = make(map[string]int, len(overrides))
		for route, seconds := range overrides {
			if seconds <= 0 {
				continue
			}
			if seconds > maxTimeoutSeconds {
				return cfg, fmt.Errorf("route timeout for %s (%d) exceeds maximum of %d seconds", route, seconds, maxTimeoutSeconds)
			}
			cfg.RouteOverrides[route] = seconds
		}
	}

	return cfg, nil
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// HTTPClientTimeoutDuration returns the outbound HTTP client timeout.
func (c TimeoutConfig) HTTPClientTimeoutDuration() time.Duration {
	return seconds(c.HTTPClientTimeout, DefaultHTTPClientTimeout)
}

// RedisOperationTimeoutDuration returns the per-command Redis timeout.
func (c TimeoutConfig) RedisOperationTimeoutDuration() time.Duration {
	return seconds(c.RedisOperationTimeout, DefaultRedisOperationTimeout)
}

// RedisReadTimeoutDuration falls back to the operation timeout when unset.
func (c TimeoutConfig) RedisReadTimeoutDuration() time.Duration {
	if c.RedisReadTimeout <= 0 {
		return c.RedisOperationTimeoutDuration()
	}
	return time.Duration(c.RedisReadTimeout) * time.Second
}

// RedisWriteTimeoutDuration falls back to the operation timeout when unset.
func (c TimeoutConfig) RedisWriteTimeoutDuration() time.Duration {
	if c.RedisWriteTimeout <= 0 {
		return c.RedisOperationTimeoutDuration()
	}
	return time.Duration(c.RedisWriteTimeout) * time.Second
}

// WebSocketConnectionTimeoutDuration bounds how long a session may stay idle.
func (c TimeoutConfig) WebSocketConnectionTimeoutDuration() time.Duration {
	return seconds(c.WebSocketConnectionTimeout, DefaultWebSocketConnectionTimeout)
}

// DefaultRequestTimeoutDuration returns the default HTTP handler timeout.
func (c TimeoutConfig) DefaultRequestTimeoutDuration() time.Duration {
	return seconds(c.DefaultRequestTimeout, DefaultRequestTimeout)
}

// TimeoutForRoute returns the handler timeout for method and path.
func (c TimeoutConfig) TimeoutForRoute(method, path string) time.Duration {
	if override, ok := c.RouteOverrides[method+":"+path]; ok && override > 0 {
		return time.Duration(override) * time.Second
	}
	return c.DefaultRequestTimeoutDuration()
}

// DefaultRedisReadTimeoutDuration returns DefaultRedisReadTimeout as a duration.
func DefaultRedisReadTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisReadTimeout) * time.Second
}

// DefaultRedisWriteTimeoutDuration returns DefaultRedisWriteTimeout as a duration.
func DefaultRedisWriteTimeoutDuration() time.Duration {
	return time.Duration(DefaultRedisWriteTimeout) * time.Second
}

// DefaultHTTPClientTimeoutDuration returns DefaultHTTPClientTimeout as a duration.
func DefaultHTTPClientTimeoutDuration() time.Duration {
	return time.Duration(DefaultHTTPClientTimeout) * time.Second
}
