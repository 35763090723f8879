// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"time"

	"github.com/ensembleai/ensemble/pkg/errors"
)

// WithTimeout executes fn with a timeout boundary. A zero duration means
// no timeout. Fails with a transient TIMEOUT error when the deadline is
// exceeded; fn keeps running in its goroutine but its result is discarded.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	if d == 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", d.String())
	case err := <-done:
		return err
	}
}
