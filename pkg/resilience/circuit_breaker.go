// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// CircuitBreakerState represents the state of a circuit breaker.
type CircuitBreakerState string

const (
	// StateClosed means the circuit breaker is working normally.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen means the circuit breaker is blocking calls.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen means the circuit breaker is testing if the backend recovered.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int

	// SuccessThreshold is the number of successes in half-open before closing.
	SuccessThreshold int

	// Timeout is how long to wait before trying half-open state.
	Timeout time.Duration

	// Name is the circuit breaker identifier for logging/metrics.
	Name string
}

// CircuitBreaker prevents hammering a failing external backend across
// rounds using the circuit breaker pattern.
type CircuitBreaker struct {
	config       CircuitBreakerConfig
	state        CircuitBreakerState
	failures     int
	successes    int
	lastFailTime time.Time
	mu           sync.RWMutex
}

// NewCircuitBreaker creates a new circuit breaker with the given config.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Name == "" {
		config.Name = "circuit_breaker"
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Call executes fn if the circuit breaker allows, tracking success/failure.
// A rejected call fails with a transient SERVER_ERROR so the retry layer
// treats the open circuit like a temporarily unavailable backend.
func (cb *CircuitBreaker) Call(_ context.Context, fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.checkState()

	if cb.state == StateOpen {
		return errors.New(errors.CodeServerError, "circuit breaker open", nil).
			WithContext("breaker", cb.config.Name)
	}

	err := fn()

	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()

		if cb.failures >= cb.config.FailureThreshold && cb.state == StateClosed {
			cb.state = StateOpen
			cb.failures = 0
			cb.successes = 0
		} else if cb.state == StateHalfOpen {
			cb.state = StateOpen
			cb.failures = 0
			cb.successes = 0
		}
	} else {
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = StateClosed
				cb.failures = 0
				cb.successes = 0
			}
		} else if cb.state == StateClosed {
			cb.failures = 0
		}
	}

	return err
}

// checkState transitions the circuit breaker state if appropriate.
// Must be called under lock.
func (cb *CircuitBreaker) checkState() {
	if cb.state == StateOpen {
		if time.Since(cb.lastFailTime) > cb.config.Timeout {
			cb.state = StateHalfOpen
			cb.successes = 0
			cb.failures = 0
		}
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}
