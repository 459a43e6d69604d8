package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares windows between gateway instances. Windows are aligned
// to multiples of the window length so every instance agrees on the bucket.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, win time.Duration) *RedisLimiter {
	if win <= 0 {
		win = DefaultWindow
	}
	return &RedisLimiter{client: client, window: win, prefix: "linkhub:ratelimit", now: time.Now}
}

// WithClock overrides the time source.
func (r *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	r.now = now
	return r
}

func (r *RedisLimiter) Allow(ctx context.Context, keyID string, quota int) (Decision, error) {
	now := r.now()
	start := now.Truncate(r.window)
	key := fmt.Sprintf("%s:%s:%d", r.prefix, keyID, start.Unix())

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.window+time.Second)
		return nil
	})
	if err != nil {
		return Decision{Allowed: true, Limit: quota}, fmt.Errorf("redis rate limit: %w", err)
	}
	return decide(incr.Val(), quota, start.Add(r.window).Sub(now)), nil
}
