package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	t.Run("NewTokenBucket sets rate and capacity", func(t *testing.T) {
		limiter := NewTokenBucket(100, 10)

		if limiter.Limit() != 100 {
			t.Errorf("limit = %f, want 100", limiter.Limit())
		}
		if limiter.Burst() != 10 {
			t.Errorf("burst = %d, want 10", limiter.Burst())
		}
	})

	t.Run("NewInterval sets equivalent rate", func(t *testing.T) {
		limiter := NewInterval(100*time.Millisecond, 1)

		if limiter.Limit() != 10 {
			t.Errorf("limit = %f, want 10", limiter.Limit())
		}
	})

	t.Run("Allow spends the burst then refuses", func(t *testing.T) {
		limiter := NewInterval(time.Hour, 3)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if !limiter.Allow(ctx) {
				t.Errorf("Allow refused within the burst at %d", i)
			}
		}
		if limiter.Allow(ctx) {
			t.Error("Allow succeeded with the bucket empty")
		}
	})

	t.Run("Wait blocks until a token refills", func(t *testing.T) {
		limiter := NewInterval(10*time.Millisecond, 1)
		ctx := context.Background()

		limiter.Allow(ctx)

		waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		if err := limiter.Wait(waitCtx); err != nil {
			t.Errorf("Wait: %v", err)
		}
	})

	t.Run("Wait respects context cancellation", func(t *testing.T) {
		limiter := NewInterval(time.Hour, 1)
		ctx := context.Background()

		limiter.Allow(ctx)

		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		if err := limiter.Wait(waitCtx); err == nil {
			t.Error("Wait returned nil with no token coming")
		}
	})
}
