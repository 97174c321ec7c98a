package database

import (
	"context"
	"fmt"
	"time"

	"scoutly/internal/common/logger"
)

// RetryPolicy bounds the startup connection attempts.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 5, InitialDelay: 500 * time.Millisecond}

// Retry calls op until it succeeds, doubling the delay between attempts.
func Retry(ctx context.Context, policy RetryPolicy, log logger.Logger, name string, op func(context.Context) error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	delay := policy.InitialDelay

	var err error
	for i := 0; i < policy.Attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == policy.Attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err,
			"attempt":     i + 1,
			"maxAttempts": policy.Attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, policy.Attempts, err)
}
