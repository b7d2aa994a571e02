package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowAllow counts a hit against scope and reports whether the count is
// still within limit. INCR and EXPIRE NX run in one MULTI so a counter never
// outlives its window, even if an earlier expire was lost.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.cmds == nil {
		return false, 0, errNotInitialized
	}
	if window <= 0 {
		return false, 0, fmt.Errorf("rate limit window must be positive")
	}

	key := c.keys.RateLimit(scope)
	var incr *redis.IntCmd
	_, err := c.cmds.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	count := incr.Val()
	return count <= limit, count, nil
}
