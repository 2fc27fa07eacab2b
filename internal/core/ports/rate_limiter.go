package ports

import (
	"context"
	"time"
)

// RateDecision is the outcome of a single rate limiter check.
type RateDecision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
	Limit      int
}

// RateLimiter takes one unit of budget for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
