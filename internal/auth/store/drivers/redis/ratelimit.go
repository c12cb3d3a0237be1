package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultRateLimitPrefix = "ratelimit"

// windowScript counts a hit in a fixed window. The first hit starts the
// window. Returns the hit count and the milliseconds left in the window.
const windowScript = `
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`

var windowLua = goredis.NewScript(windowScript)

// RateLimitBackend shares rate limit windows between every instance using
// the same Redis. Windows are fixed, so RateLimitConfig.Burst is ignored.
type RateLimitBackend struct {
	client goredis.UniversalClient
	prefix string
}

var _ httpx.LimiterBackend = (*RateLimitBackend)(nil)

// NewRateLimitBackend returns a backend using keys under prefix. An empty
// prefix uses DefaultRateLimitPrefix.
func NewRateLimitBackend(client goredis.UniversalClient, prefix string) *RateLimitBackend {
	if prefix == "" {
		prefix = DefaultRateLimitPrefix
	}
	return &RateLimitBackend{client: client, prefix: prefix}
}

func (b *RateLimitBackend) NewLimiter(scope string, config httpx.RateLimitConfig) httpx.Limiter {
	return &windowLimiter{
		client: b.client,
		prefix: b.prefix + ":" + scope + ":",
		limit:  int64(config.RequestsPerWindow),
		window: config.Window,
	}
}

type windowLimiter struct {
	client goredis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func (l *windowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := windowLua.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis: rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("redis: rate limit: unexpected reply %v", res)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count > l.limit {
		return false, ttl, nil
	}
	return true, 0, nil
}
