package generate

import (
	"context"
	"fmt"
	"time"
)

// retryBaseDelay is the wait before the second attempt; it grows linearly.
var retryBaseDelay = 500 * time.Millisecond

// retry retries a function up to `attempts` times with a growing delay.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := retryBaseDelay * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
