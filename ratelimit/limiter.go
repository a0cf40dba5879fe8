// Package ratelimit paces outgoing protocol traffic.
//
// IRC servers disconnect clients that exceed their flood limits, so
// every line the bot sends passes through a token bucket first. The
// bucket refills at the configured rate and holds at most burst tokens;
// each line spends one.
//
//	limiter := ratelimit.NewInterval(500*time.Millisecond, 4)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
//	// send the line
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates how often an action may proceed. Implementations must
// be safe for concurrent use.
type Limiter interface {
	// Allow reports whether an action may proceed right now, spending
	// a token if so. It never blocks.
	Allow(ctx context.Context) bool

	// Wait blocks until an action may proceed or ctx is cancelled, in
	// which case it returns the context error.
	Wait(ctx context.Context) error
}

// TokenBucket is a token bucket limiter built on golang.org/x/time/rate.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a bucket refilled at rps tokens per second,
// holding at most burst tokens.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// NewInterval creates a bucket that refills one token every interval,
// the natural shape for line pacing configuration.
func NewInterval(interval time.Duration, burst int) *TokenBucket {
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (t *TokenBucket) Allow(ctx context.Context) bool {
	return t.limiter.Allow()
}

func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Limit returns the refill rate in tokens per second.
func (t *TokenBucket) Limit() float64 {
	return float64(t.limiter.Limit())
}

// Burst returns the bucket capacity.
func (t *TokenBucket) Burst() int {
	return t.limiter.Burst()
}

var _ Limiter = (*TokenBucket)(nil)
