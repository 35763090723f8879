// SPDX-License-Identifier: Apache-2.0
// Package resilience provides bounded retry and circuit breaker patterns
// for external calls made by Ensemble actions.
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (must be >= 1).
	MaxAttempts int

	// InitialDelay is the initial backoff delay.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff delay for a single wait.
	MaxDelay time.Duration

	// MaxElapsed caps the total time spent across all attempts and waits.
	// Zero means no cap.
	MaxElapsed time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// IsRecoverable determines if an error should be retried.
	// If nil, errors.IsTransient is used: only classified-transient
	// failures are retried.
	IsRecoverable func(error) bool

	// Jitter adds randomness to backoff to prevent thundering herd.
	// Value between 0 and 1; 0.1 means ±10% jitter.
	Jitter float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		MaxElapsed:    30 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: errors.IsTransient,
	}
}

// WithMaxAttempts returns a new config with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a new config with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithMaxDelay returns a new config with MaxDelay set.
func (rc RetryConfig) WithMaxDelay(d time.Duration) RetryConfig {
	rc.MaxDelay = d
	return rc
}

// WithMaxElapsed returns a new config with MaxElapsed set.
func (rc RetryConfig) WithMaxElapsed(d time.Duration) RetryConfig {
	rc.MaxElapsed = d
	return rc
}

// WithIsRecoverable returns a new config with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do executes fn with retry logic, returning the last error if all attempts
// fail. Non-recoverable errors are returned immediately without retry.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	if rc.IsRecoverable == nil {
		rc.IsRecoverable = errors.IsTransient
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(attempt, rc)
			if rc.MaxElapsed > 0 {
				remaining := rc.MaxElapsed - time.Since(start)
				if remaining <= 0 {
					return lastErr
				}
				if delay > remaining {
					delay = remaining
				}
			}
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeContextLost, "context cancelled during retry", ctx.Err()).
					WithContext("attempt", attempt).
					WithContext("max_attempts", rc.MaxAttempts)
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !rc.IsRecoverable(err) {
			return err
		}
		if rc.MaxElapsed > 0 && time.Since(start) >= rc.MaxElapsed {
			return lastErr
		}
	}

	return lastErr
}

// DoWithResult executes fn with retry logic, returning both result and error.
func (rc RetryConfig) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var result any
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// calculateBackoff computes exponential backoff delay with jitter.
func calculateBackoff(attempt int, rc RetryConfig) time.Duration {
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}

	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.Multiplier, float64(attempt-1)))

	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}

	if rc.Jitter > 0 {
		jitterRange := 2 * delay.Seconds() * rc.Jitter * (rand.Float64() - 0.5)
		delay = time.Duration(float64(delay) + jitterRange*float64(time.Second))
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}
