package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := retryPolicy{Attempts: 5, Base: 500 * time.Millisecond}

	assert.Equal(t, 500*time.Millisecond, p.delay(0))
	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
}

func TestRetryRateLimited_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := retryRateLimited(context.Background(), retryPolicy{Attempts: 5, Base: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("openai: %w", domain.ErrRateLimited)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryRateLimited_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retryRateLimited(context.Background(), retryPolicy{Attempts: 3, Base: time.Millisecond}, func() error {
		calls++
		return domain.ErrRateLimited
	})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, calls)
}

func TestRetryRateLimited_OtherErrorsNotRetried(t *testing.T) {
	calls := 0
	err := retryRateLimited(context.Background(), retryPolicy{Attempts: 5, Base: time.Millisecond}, func() error {
		calls++
		return domain.ErrQuotaExceeded
	})

	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, 1, calls)
}

func TestRetryRateLimited_ZeroAttemptsCallsOnce(t *testing.T) {
	calls := 0
	_ = retryRateLimited(context.Background(), retryPolicy{}, func() error {
		calls++
		return domain.ErrRateLimited
	})
	assert.Equal(t, 1, calls)
}

func TestRetryRateLimited_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := retryRateLimited(ctx, retryPolicy{Attempts: 5, Base: time.Hour}, func() error {
		return domain.ErrRateLimited
	})

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}
