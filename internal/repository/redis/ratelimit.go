package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// luaSlidingWindow keeps one sorted-set member per admitted hit, scored by
// its time in ms. Rejected hits are not recorded.
// KEYS[1] = key
// ARGV[1] = now_ms, ARGV[2] = window_ms, ARGV[3] = limit, ARGV[4] = member
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local retry = window - (now - (tonumber(oldest[2]) or now))
  if retry < 0 then retry = 0 end
  return {0, count, retry}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`

// SlidingWindowLimiter admits at most limit hits per window for each id
// within one scope.
type SlidingWindowLimiter struct {
	rdb    *redis.Client
	scope  string
	limit  int
	window time.Duration
	script *redis.Script
}

func NewSlidingWindowLimiter(
	rdb *redis.Client,
	scope string,
	limit int,
	window time.Duration,
) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		rdb:    rdb,
		scope:  scope,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaSlidingWindow),
	}
}

// Verdict is the outcome of one hit.
type Verdict struct {
	Allowed bool
	// Hits admitted in the current window, this one included when allowed.
	Hits int64
	// RetryAfter is how long until the oldest hit leaves the window; zero
	// when allowed.
	RetryAfter time.Duration
}

// Allow records a hit for id if it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, id string) (Verdict, error) {
	const op = "repository.redis.SlidingWindowLimiter.Allow"

	vals, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{KeyRateLimit(l.scope, id)},
		time.Now().UnixMilli(), l.window.Milliseconds(), l.limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Verdict{}, fmt.Errorf("%s:%w", op, err)
	}

	v, err := verdictOf(vals)
	if err != nil {
		return Verdict{}, fmt.Errorf("%s:%w", op, err)
	}

	return v, nil
}

// verdictOf decodes the script reply {allowed, hits, retry_ms}.
func verdictOf(vals []int64) (Verdict, error) {
	if len(vals) != 3 {
		return Verdict{}, fmt.Errorf("unexpected script reply %v", vals)
	}

	return Verdict{
		Allowed:    vals[0] == 1,
		Hits:       vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
