// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/ensembleai/ensemble/pkg/errors"
)

func transientErr() error {
	return errors.New(errors.CodeRateLimit, "rate limited", nil)
}

func TestRetrySuccessAfterTransient(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	err := config.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return transientErr()
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExactlyMaxAttempts(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithMaxAttempts(2).WithInitialDelay(time.Millisecond)
	err := config.Do(context.Background(), func() error {
		attempts++
		return transientErr()
	})

	if err == nil {
		t.Fatal("expected error after max attempts")
	}
	if attempts != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", attempts)
	}
	if errors.CodeOf(err) != errors.CodeRateLimit {
		t.Errorf("expected last transient error surfaced, got %v", err)
	}
}

func TestRetryPermanentNotRetried(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	err := config.Do(context.Background(), func() error {
		attempts++
		return errors.New(errors.CodeInvalidRequest, "bad prompt", nil)
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("permanent failure must not be retried, got %d attempts", attempts)
	}
}

func TestRetryUnclassifiedNotRetried(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	err := config.Do(context.Background(), func() error {
		attempts++
		return stderrors.New("plain error")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("unclassified failure must not be retried, got %d attempts", attempts)
	}
}

func TestRetryMaxElapsed(t *testing.T) {
	attempts := 0
	config := RetryConfig{
		MaxAttempts:  100,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		MaxElapsed:   50 * time.Millisecond,
		Multiplier:   1.0,
	}

	start := time.Now()
	err := config.Do(context.Background(), func() error {
		attempts++
		return transientErr()
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error after elapsed cap")
	}
	if attempts >= 100 {
		t.Errorf("elapsed cap did not bound attempts, got %d", attempts)
	}
	// Generous bound: the cap plus one in-flight wait.
	if elapsed > 200*time.Millisecond {
		t.Errorf("total elapsed %v exceeds cap by too much", elapsed)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := DefaultRetryConfig().WithInitialDelay(100 * time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := config.Do(ctx, func() error {
		return transientErr()
	})

	if errors.CodeOf(err) != errors.CodeContextLost {
		t.Errorf("expected CONTEXT_LOST, got %v", err)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	config := DefaultRetryConfig().WithInitialDelay(time.Millisecond)
	got, err := config.DoWithResult(context.Background(), func() (any, error) {
		attempts++
		if attempts < 2 {
			return nil, transientErr()
		}
		return "draft", nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != "draft" {
		t.Errorf("expected draft, got %v", got)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	config := RetryConfig{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		Multiplier:   2.0,
	}

	if d := calculateBackoff(1, config); d != 10*time.Millisecond {
		t.Errorf("attempt 1: expected 10ms, got %v", d)
	}
	if d := calculateBackoff(2, config); d != 20*time.Millisecond {
		t.Errorf("attempt 2: expected 20ms, got %v", d)
	}
	if d := calculateBackoff(5, config); d != 40*time.Millisecond {
		t.Errorf("attempt 5: expected cap at 40ms, got %v", d)
	}
}
