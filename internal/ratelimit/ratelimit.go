// Package ratelimit enforces per-key fixed-window request quotas.
//
// A window starts at the first request for a key and lasts Window. Every
// Allow call in the window increments the key's counter; calls beyond the
// quota are rejected until the window elapses and the count resets.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the quota period for API keys.
const DefaultWindow = 60 * time.Second

// Decision reports the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter decides whether a key may make one more request. Implementations
// must be safe for concurrent use by requests sharing a key.
type Limiter interface {
	Allow(ctx context.Context, keyID string, quota int) (Decision, error)
}

func decide(count int64, quota int, resetAfter time.Duration) Decision {
	remaining := int64(quota) - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}
	return Decision{
		Allowed:    count <= int64(quota),
		Limit:      quota,
		Remaining:  int(remaining),
		ResetAfter: resetAfter,
	}
}
