package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redisclient "github.com/mydscvr/backend/internal/infrastructure/clients/redis"
	"github.com/mydscvr/backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript evicts, counts and conditionally records in one round
// trip. Scores are unix microseconds passed as strings so Lua never formats
// them. Returns {allowed, count, oldest score}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, ARGV[1], ARGV[4])
  count = count + 1
  allowed = 1
end

local oldest = ARGV[1]
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = first[2]
end
redis.call('PEXPIRE', key, ARGV[5])
return {allowed, count, oldest}
`)

// RedisRateLimitStore shares sliding windows between API replicas using one
// sorted set per key
type RedisRateLimitStore struct {
	client *redisclient.Client
	prefix string
}

var _ ratelimit.Store = (*RedisRateLimitStore)(nil)

// NewRedisRateLimitStore creates a store keyed under "ratelimit:"
func NewRedisRateLimitStore(client *redisclient.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: "ratelimit:"}
}

// Allow implements ratelimit.Store
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (ratelimit.Result, error) {
	nowMicros := now.UnixMicro()
	vals, err := slidingWindowScript.Run(ctx, s.client.Client(),
		[]string{s.prefix + key},
		strconv.FormatInt(nowMicros, 10),
		strconv.FormatInt(nowMicros-window.Microseconds(), 10),
		limit,
		uuid.NewString(),
		max(window.Milliseconds(), 1),
	).Slice()
	if err != nil {
		return ratelimit.Result{}, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed, count, oldest, err := parseWindowReply(vals)
	if err != nil {
		return ratelimit.Result{}, err
	}

	res := ratelimit.Result{
		Allowed: allowed,
		Limit:   limit,
		Reset:   time.UnixMicro(oldest).UTC().Add(window),
	}
	if res.Allowed {
		res.Remaining = limit - count
	} else {
		res.RetryAfter = res.Reset.Sub(now)
	}
	return res, nil
}

func parseWindowReply(vals []interface{}) (allowed bool, count int, oldest int64, err error) {
	if len(vals) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	flag, ok1 := vals[0].(int64)
	n, ok2 := vals[1].(int64)
	score, ok3 := vals[2].(string)
	if !ok1 || !ok2 || !ok3 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit script reply %v", vals)
	}
	f, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("invalid window score %q: %w", score, err)
	}
	return flag == 1, int(n), int64(f), nil
}
