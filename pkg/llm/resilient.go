package llm

import (
	"context"

	"github.com/ensembleai/ensemble/pkg/resilience"
)

// Resilient wraps a Provider with bounded retry and an optional circuit
// breaker. Only classified-transient failures are retried; the final error
// of an exhausted retry is the last backend error, unchanged.
type Resilient struct {
	next    Provider
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker

	// OnRetry, if set, observes each failed attempt before the backoff
	// wait. Used for events and metrics.
	OnRetry func(attempt int, err error)
}

// ResilientOption configures a Resilient provider.
type ResilientOption func(*Resilient)

// WithBreaker installs a circuit breaker in front of the backend.
func WithBreaker(cb *resilience.CircuitBreaker) ResilientOption {
	return func(r *Resilient) { r.breaker = cb }
}

// WithOnRetry sets the per-attempt failure observer.
func WithOnRetry(fn func(attempt int, err error)) ResilientOption {
	return func(r *Resilient) { r.OnRetry = fn }
}

// NewResilient wraps next with the given retry policy.
func NewResilient(next Provider, retry resilience.RetryConfig, opts ...ResilientOption) *Resilient {
	r := &Resilient{next: next, retry: retry}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Chat calls the wrapped provider through the retry policy and breaker.
func (r *Resilient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	attempt := 0
	var resp *ChatResponse
	err := r.retry.Do(ctx, func() error {
		attempt++
		call := func() error {
			var callErr error
			resp, callErr = r.next.Chat(ctx, req)
			return callErr
		}
		var err error
		if r.breaker != nil {
			err = r.breaker.Call(ctx, call)
		} else {
			err = call()
		}
		if err != nil && r.OnRetry != nil {
			r.OnRetry(attempt, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

var _ Provider = (*Resilient)(nil)
