package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"petai/internal/domain"
)

// Generate calls GenerateOnce up to MaxAttempts times. The wait before
// attempt i (zero based, i > 0) is 2^i * BaseDelay, without jitter.
// Configuration and input errors are returned immediately.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	attempt := 0
	var body []byte

	operation := func() error {
		attempt++
		out, err := c.GenerateOnce(ctx, req)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", c.maxAttempts).
				Msg("gemini: attempt failed")
			if permanent(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = out
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Info().
			Int("attempt", attempt+1).
			Int("max_attempts", c.maxAttempts).
			Dur("delay", delay).
			Msg("gemini: retrying image generation")
	}

	err := backoff.RetryNotifyWithTimer(operation, c.retryPolicy(ctx), notify, c.timer)
	if err == nil {
		return body, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if permanent(ctx, err) {
		return nil, err
	}
	return nil, fmt.Errorf("all attempts failed: last error: %w", err)
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 2 * c.baseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = time.Duration(math.MaxInt64)
	policy.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxAttempts-1)), ctx)
}

func permanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrUserInput)
}
