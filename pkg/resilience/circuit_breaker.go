// Package resilience guards calls to upstream services with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultName = "upstream"

// ErrCircuitOpen is returned when the breaker refuses a request because it is
// open or its half-open probe budget is spent.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Operation represents a call wrapped by the circuit breaker.
type Operation func(ctx context.Context) (interface{}, error)

// Settings defines runtime options for the circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	// IsSuccessful decides which errors count against the breaker. Nil counts every error.
	IsSuccessful func(err error) bool
}

// CircuitBreaker wraps gobreaker and records its activity in Prometheus.
type CircuitBreaker struct {
	name         string
	breaker      *gobreaker.CircuitBreaker
	isSuccessful func(err error) bool
}

// NewCircuitBreaker trips after FailureThreshold consecutive failures and
// lets SuccessThreshold probes through once Timeout has elapsed.
func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	name := settings.Name
	if name == "" {
		name = defaultName
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	isSuccessful := settings.IsSuccessful
	if isSuccessful == nil {
		isSuccessful = func(err error) bool { return err == nil }
	}

	breakerSettings := gobreaker.Settings{
		Name:     name,
		Timeout:  settings.Timeout,
		Interval: settings.Interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			observeTransition(name, from, to)
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	if settings.SuccessThreshold > 0 {
		breakerSettings.MaxRequests = settings.SuccessThreshold
	}

	observeState(name, gobreaker.StateClosed)

	return &CircuitBreaker{
		name:         name,
		breaker:      gobreaker.NewCircuitBreaker(breakerSettings),
		isSuccessful: isSuccessful,
	}
}

// Name returns the breaker's metric label.
func (c *CircuitBreaker) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Execute runs operation through the breaker. A nil breaker runs it directly.
func (c *CircuitBreaker) Execute(ctx context.Context, operation Operation) (interface{}, error) {
	if operation == nil {
		return nil, errors.New("operation cannot be nil")
	}
	if c == nil || c.breaker == nil {
		return operation(ctx)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return operation(ctx)
	})
	switch {
	case err == nil:
		observeCall(c.name, outcomeSuccess)
		return result, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observeCall(c.name, outcomeRejected)
		logger.DebugContext(ctx, "circuit breaker rejected call", zap.String("breaker", c.name), zap.Error(err))
		return nil, ErrCircuitOpen
	case c.isSuccessful(err):
		observeCall(c.name, outcomeIgnored)
		return nil, err
	default:
		observeCall(c.name, outcomeFailure)
		return nil, err
	}
}

// Allow reports whether the breaker would allow a request without executing it.
func (c *CircuitBreaker) Allow() bool {
	if c == nil || c.breaker == nil {
		return true
	}
	return c.breaker.State() != gobreaker.StateOpen
}

// State returns "closed", "half-open" or "open".
func (c *CircuitBreaker) State() string {
	if c == nil || c.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return c.breaker.State().String()
}
