package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/map-directions/pkg/health"
	"github.com/richxcame/map-directions/pkg/resilience"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping() error { return p.err }

func TestRedisChecker(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectPing().SetVal("PONG")
	mock.ExpectPing().SetErr(errors.New("refused"))

	check := health.RedisChecker(client)

	assert.NoError(t, check())
	err := check()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestPingChecker(t *testing.T) {
	assert.NoError(t, health.PingChecker(fakePinger{})())
	assert.EqualError(t, health.PingChecker(fakePinger{err: errors.New("nats not connected")})(), "nats not connected")
	assert.Error(t, health.PingChecker(nil)())
}

func TestBreakerChecker(t *testing.T) {
	assert.NoError(t, health.BreakerChecker(nil)())

	breaker := resilience.NewCircuitBreaker(resilience.Settings{Name: "routes-api", FailureThreshold: 1})
	assert.NoError(t, health.BreakerChecker(breaker)())
}

func TestAsyncChecker_Timeout(t *testing.T) {
	check := health.AsyncChecker(func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	}, 10*time.Millisecond)

	assert.ErrorContains(t, check(), "timeout")
}

func TestAsyncChecker_PassesResult(t *testing.T) {
	check := health.AsyncChecker(func() error { return errors.New("down") }, time.Second)
	assert.EqualError(t, check(), "down")
}

func TestRedisChecker_NilClient(t *testing.T) {
	assert.Error(t, health.RedisChecker(nil)())
}

func TestBreakerChecker_Open(t *testing.T) {
	breaker := resilience.NewCircuitBreaker(resilience.Settings{Name: "routes-api", FailureThreshold: 1, Timeout: time.Minute})
	_, _ = breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return nil, errors.New("HTTP 503")
	})

	assert.EqualError(t, health.BreakerChecker(breaker)(), "circuit breaker routes-api is open")
}
