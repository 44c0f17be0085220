// Package ratelimit limits requests per client.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether one more request from clientID is allowed. When it
// is not, the returned duration says how long to wait.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, time.Duration, error)
}

// Limit is a sustained rate with a burst allowance.
type Limit struct {
	RequestsPerSecond float64
	Burst             int
}

// Enabled reports whether the limit restricts anything.
func (l Limit) Enabled() bool {
	return l.RequestsPerSecond > 0 && l.Burst > 0
}
