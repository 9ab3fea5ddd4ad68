package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/map-directions/pkg/resilience"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyStatus represents the health status of a single dependency
type DependencyStatus struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Critical  bool          `json:"critical"`
	Latency   time.Duration `json:"latency_ms"`
	Message   string        `json:"message,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// DeepHealthStatus represents the complete health status of the service
type DeepHealthStatus struct {
	Status       string                      `json:"status"`
	Version      string                      `json:"version,omitempty"`
	Uptime       time.Duration               `json:"uptime_seconds"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
	Breakers     map[string]BreakerStatus    `json:"circuit_breakers,omitempty"`
	CheckedAt    time.Time                   `json:"checked_at"`
}

// BreakerStatus represents the status of a circuit breaker
type BreakerStatus struct {
	Name   string `json:"name"`
	State  string `json:"state"`
	Allows bool   `json:"allows_requests"`
}

type dependency struct {
	check    Checker
	critical bool
}

// DeepChecker reports on every dependency of the service at once
type DeepChecker struct {
	redis        *redis.Client
	dependencies map[string]dependency
	breakers     map[string]*resilience.CircuitBreaker
	version      string
	startTime    time.Time
	timeout      time.Duration
	mu           sync.RWMutex
	lastResult   *DeepHealthStatus
	cacheTTL     time.Duration
	lastChecked  time.Time
}

// DeepCheckerConfig holds configuration for the deep checker
type DeepCheckerConfig struct {
	Version  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultDeepCheckerConfig returns sensible defaults
func DefaultDeepCheckerConfig() DeepCheckerConfig {
	return DeepCheckerConfig{
		Version:  "unknown",
		Timeout:  5 * time.Second,
		CacheTTL: 10 * time.Second,
	}
}

// NewDeepChecker creates a new deep health checker
func NewDeepChecker(config DeepCheckerConfig) *DeepChecker {
	return &DeepChecker{
		dependencies: make(map[string]dependency),
		breakers:     make(map[string]*resilience.CircuitBreaker),
		version:      config.Version,
		startTime:    time.Now(),
		timeout:      config.Timeout,
		cacheTTL:     config.CacheTTL,
	}
}

// SetRedis sets the Redis client to check. Redis backs the route cache, so
// losing it degrades the service without making it unready.
func (d *DeepChecker) SetRedis(client *redis.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.redis = client
}

// AddDependency registers a named check. A failing critical dependency
// makes the service unhealthy; any other failure only degrades it.
func (d *DeepChecker) AddDependency(name string, check Checker, critical bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dependencies[name] = dependency{check: check, critical: critical}
}

// AddCircuitBreaker adds a circuit breaker to monitor
func (d *DeepChecker) AddCircuitBreaker(name string, breaker *resilience.CircuitBreaker) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakers[name] = breaker
}

// Check performs a deep health check on all dependencies
func (d *DeepChecker) Check(ctx context.Context) *DeepHealthStatus {
	d.mu.RLock()
	if d.lastResult != nil && time.Since(d.lastChecked) < d.cacheTTL {
		result := d.lastResult
		d.mu.RUnlock()
		return result
	}
	redisClient := d.redis
	deps := make(map[string]dependency, len(d.dependencies))
	for name, dep := range d.dependencies {
		deps[name] = dep
	}
	breakers := make(map[string]*resilience.CircuitBreaker, len(d.breakers))
	for name, b := range d.breakers {
		breakers[name] = b
	}
	d.mu.RUnlock()

	status := &DeepHealthStatus{
		Status:       StatusHealthy,
		Version:      d.version,
		Uptime:       time.Since(d.startTime),
		Dependencies: make(map[string]DependencyStatus),
		Breakers:     make(map[string]BreakerStatus),
		CheckedAt:    time.Now(),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	record := func(dep DependencyStatus) {
		mu.Lock()
		defer mu.Unlock()
		status.Dependencies[dep.Name] = dep
		if dep.Status == StatusHealthy {
			return
		}
		if dep.Critical {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	if redisClient != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(d.checkRedis(ctx, redisClient))
		}()
	}

	for name, dep := range deps {
		wg.Add(1)
		go func(name string, dep dependency) {
			defer wg.Done()
			record(d.checkDependency(name, dep))
		}(name, dep)
	}

	wg.Wait()

	// Breakers are checked inline; Allow never blocks.
	for name, breaker := range breakers {
		allows := breaker.Allow()
		if !allows && status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
		status.Breakers[name] = BreakerStatus{
			Name:   name,
			State:  breaker.State(),
			Allows: allows,
		}
	}

	d.mu.Lock()
	d.lastResult = status
	d.lastChecked = time.Now()
	d.mu.Unlock()

	return status
}

func (d *DeepChecker) checkRedis(ctx context.Context, client *redis.Client) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Name:      "redis",
		CheckedAt: start,
	}

	checkCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := client.Ping(checkCtx).Result()
	status.Latency = time.Since(start)
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("ping failed: %v", err)
		return status
	}

	status.Status = StatusHealthy
	status.Message = result
	return status
}

func (d *DeepChecker) checkDependency(name string, dep dependency) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Name:      name,
		Critical:  dep.critical,
		CheckedAt: start,
	}

	err := AsyncChecker(dep.check, d.timeout)()
	status.Latency = time.Since(start)
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
		return status
	}
	status.Status = StatusHealthy
	return status
}

// GinHandler serves the deep health report. Degraded services still answer 200.
func (d *DeepChecker) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := d.Check(c.Request.Context())

		httpStatus := http.StatusOK
		if status.Status == StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, status)
	}
}

// IsHealthy returns true if the service is healthy or degraded
func (d *DeepChecker) IsHealthy() bool {
	return d.Check(context.Background()).Status != StatusUnhealthy
}
