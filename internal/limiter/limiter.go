package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/todo-api/internal/common"
)

// FixedWindow allows at most max hits per key within window. The counter
// lives in Redis and starts its TTL on the first hit.
type FixedWindow struct {
	rdb    redis.UniversalClient
	prefix string
	max    int64
	window time.Duration
}

func NewFixedWindow(rdb redis.UniversalClient, prefix string, max int, window time.Duration) *FixedWindow {
	return &FixedWindow{rdb: rdb, prefix: prefix, max: int64(max), window: window}
}

// Allow records a hit for key and returns common.ErrRateLimited once the
// window budget is spent.
func (l *FixedWindow) Allow(ctx context.Context, key string) error {
	k := l.prefix + ":" + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("limiter.Allow: %w", err)
	}

	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("limiter.Allow: %w", err)
		}
	}

	if count > l.max {
		return common.ErrRateLimited
	}

	return nil
}
