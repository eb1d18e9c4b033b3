package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-parking-reservation/internal/clock"
)

// slidingWindowScript keeps one sorted set per key whose scores are the
// accept times in milliseconds.  Old members are trimmed before counting so
// the check and the insert happen atomically on the server.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now_ms - window_ms)
	local count = redis.call('ZCARD', key)
	if count >= limit then
		return 0
	end
	redis.call('ZADD', key, now_ms, member)
	redis.call('PEXPIRE', key, window_ms)
	return 1
`)

// RedisSlidingWindow is the shared-store variant of SlidingWindow for
// deployments running more than one instance.  Keys expire one window after
// their last accepted call, so idle callers cost nothing.
type RedisSlidingWindow struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	clock  clock.Clock
}

// NewRedisSlidingWindow returns a Redis-backed limiter.  Keys are stored
// under prefix + ":" + key.
func NewRedisSlidingWindow(rdb *redis.Client, limit int, window time.Duration, prefix string, clk clock.Clock) *RedisSlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &RedisSlidingWindow{rdb: rdb, limit: limit, window: window, prefix: prefix, clock: clk}
}

// Allow fails open: when Redis cannot be reached it returns true together
// with the error so a broken cache never locks customers out.
func (r *RedisSlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	if r.rdb == nil {
		return true, fmt.Errorf("ratelimit: redis client is nil")
	}
	now := r.clock.Now()
	res, err := slidingWindowScript.Run(ctx, r.rdb,
		[]string{r.prefix + ":" + key},
		now.UnixMilli(), r.window.Milliseconds(), r.limit, strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64()
	if err != nil {
		return true, fmt.Errorf("ratelimit: sliding window script: %w", err)
	}
	return res == 1, nil
}

func formatUint(n uint64) string { return strconv.FormatUint(n, 10) }
