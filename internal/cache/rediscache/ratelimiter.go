package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rebookbox:rl:"

// RateLimiter is a fixed-window counter shared by every replica that talks to
// the same redis. Keys hold counters only.
type RateLimiter struct {
	c      *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(addr string, limit int64, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		c:      redis.NewClient(&redis.Options{Addr: addr}),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter of key for the current window and reports
// whether it is still within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := rl.now().UnixNano() / int64(rl.window)
	k := fmt.Sprintf("%s%s:%d", keyPrefix, key, bucket)

	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, errors.Wrap(err, "redis ratelimit")
	}
	return incr.Val() <= rl.limit, nil
}

func (rl *RateLimiter) Ping(ctx context.Context) error {
	return errors.Wrap(rl.c.Ping(ctx).Err(), "redis ping")
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
