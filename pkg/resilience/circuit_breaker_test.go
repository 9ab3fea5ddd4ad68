package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(context.Context) (interface{}, error) {
	return nil, errors.New("boom")
}

func TestCircuitBreakerTripsAndReturnsOpenError(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "trip-breaker",
		Timeout:          time.Minute,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(ctx, failing)
		require.Error(t, err, "iteration %d", i)
	}

	assert.False(t, breaker.Allow())
	assert.Equal(t, "open", breaker.State())

	_, err := breaker.Execute(ctx, func(context.Context) (interface{}, error) {
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, float64(1), testutil.ToFloat64(breakerState.WithLabelValues("trip-breaker")))
	assert.Equal(t, float64(2), testutil.ToFloat64(breakerCalls.WithLabelValues("trip-breaker", outcomeFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(breakerCalls.WithLabelValues("trip-breaker", outcomeRejected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(breakerTransitions.WithLabelValues("trip-breaker", "closed", "open")))
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "recover-breaker",
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 1,
		SuccessThreshold: 1,
	})

	_, err := breaker.Execute(context.Background(), failing)
	require.Error(t, err)
	require.False(t, breaker.Allow())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, "half-open", breaker.State())

	result, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return "routes", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "routes", result)
	assert.Equal(t, "closed", breaker.State())
	assert.Equal(t, float64(0), testutil.ToFloat64(breakerState.WithLabelValues("recover-breaker")))
}

func TestCircuitBreakerPassesThroughOnSuccess(t *testing.T) {
	breaker := NewCircuitBreaker(Settings{
		Name:             "success-breaker",
		Timeout:          time.Second,
		Interval:         time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
	})

	result, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return "response", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "response", result)
	assert.Equal(t, float64(1), testutil.ToFloat64(breakerCalls.WithLabelValues("success-breaker", outcomeSuccess)))
}

func TestCircuitBreakerIgnoresSuccessfulErrors(t *testing.T) {
	ignored := errors.New("caller went away")
	breaker := NewCircuitBreaker(Settings{
		Name:             "ignore-breaker",
		Timeout:          time.Second,
		FailureThreshold: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ignored)
		},
	})

	for i := 0; i < 3; i++ {
		_, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
			return nil, ignored
		})
		assert.ErrorIs(t, err, ignored)
	}
	assert.True(t, breaker.Allow())
	assert.Equal(t, float64(3), testutil.ToFloat64(breakerCalls.WithLabelValues("ignore-breaker", outcomeIgnored)))
}

func TestCircuitBreakerDefaultName(t *testing.T) {
	assert.Equal(t, defaultName, NewCircuitBreaker(Settings{}).Name())
}

func TestNilBreakerRunsOperation(t *testing.T) {
	var breaker *CircuitBreaker
	result, err := breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, breaker.Allow())
	assert.Equal(t, "closed", breaker.State())
	assert.Empty(t, breaker.Name())
}

func TestExecuteRejectsNilOperation(t *testing.T) {
	_, err := NewCircuitBreaker(Settings{Name: "nil-op"}).Execute(context.Background(), nil)
	assert.Error(t, err)
}
