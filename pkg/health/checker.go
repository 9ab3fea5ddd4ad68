// Package health reports whether the service and its dependencies can serve
// route requests.
package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/map-directions/pkg/resilience"
)

// DefaultTimeout bounds a single readiness check.
const DefaultTimeout = 2 * time.Second

// Checker returns nil when the thing it checks is usable.
type Checker func() error

// Pinger is implemented by connections that report their own liveness,
// such as the event bus.
type Pinger interface {
	Ping() error
}

var errNilDependency = errors.New("connection is nil")

// RedisChecker pings Redis with DefaultTimeout.
func RedisChecker(client *redis.Client) Checker {
	return func() error {
		if client == nil {
			return errNilDependency
		}

		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		return nil
	}
}

// PingChecker adapts a Pinger to a Checker.
func PingChecker(p Pinger) Checker {
	return func() error {
		if p == nil {
			return errNilDependency
		}
		return p.Ping()
	}
}

// BreakerChecker fails while the breaker is open. A nil breaker is always healthy.
func BreakerChecker(breaker *resilience.CircuitBreaker) Checker {
	return func() error {
		if !breaker.Allow() {
			return fmt.Errorf("circuit breaker %s is %s", breaker.Name(), breaker.State())
		}
		return nil
	}
}

// AsyncChecker abandons checker after timeout. The abandoned call keeps
// running; its result is dropped.
func AsyncChecker(checker Checker, timeout time.Duration) Checker {
	return func() error {
		result := make(chan error, 1)
		go func() { result <- checker() }()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case err := <-result:
			return err
		case <-timer.C:
			return fmt.Errorf("health check timeout after %v", timeout)
		}
	}
}
