package resilience

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/MrWong99/greeni/pkg/provider"
)

// RetryPolicy bounds automatic retries of idempotent collaborator calls.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero
	// disables retrying.
	MaxRetries uint64

	// BaseDelay is the first backoff delay; each retry doubles it.
	BaseDelay time.Duration

	// Retryable classifies errors. Default: [provider.Retryable], i.e. HTTP
	// 429 and the 5xx gateway family.
	Retryable func(error) bool

	// OnRetry, if set, is called before each retry with the 1-based retry
	// number and the error that caused it.
	OnRetry func(ctx context.Context, attempt int, err error)
}

// DefaultRetryPolicy mirrors the speech backends' published guidance: three
// retries starting at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: 500 * time.Millisecond}
}

// Do runs fn, retrying per p while the returned error is retryable and ctx is
// live. The final error is returned unwrapped.
func Do(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	classify := p.Retryable
	if classify == nil {
		classify = provider.Retryable
	}
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(p.MaxRetries, retry.WithJitterPercent(10, retry.NewExponential(base)))

	var (
		attempt int
		lastErr error
	)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if lastErr != nil && p.OnRetry != nil {
			p.OnRetry(ctx, attempt, lastErr)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		attempt++
		lastErr = err
		if classify(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
