package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// retryPolicy is an exponential backoff applied to retryable calls.
type retryPolicy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// Base is the delay before the first retry. It doubles each retry.
	Base time.Duration
}

// delay returns the wait before retry number n (0-based).
func (p retryPolicy) delay(n int) time.Duration {
	return p.Base * time.Duration(1<<n)
}

// retryRateLimited calls fn until it succeeds, fails with an error other
// than domain.ErrRateLimited, or the attempts are exhausted. The last
// error is returned.
func retryRateLimited(ctx context.Context, p retryPolicy, fn func() error) error {
	return retryWhile(ctx, p, isRateLimited, fn)
}

// retryWhile is retryRateLimited with a caller-chosen retryable test.
func retryWhile(ctx context.Context, p retryPolicy, retryable func(error) bool, fn func() error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for n := 0; n < attempts; n++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if n == attempts-1 {
			break
		}
		if werr := sleepContext(ctx, p.delay(n)); werr != nil {
			return werr
		}
	}
	return err
}

func isRateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
