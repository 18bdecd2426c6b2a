package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultKeyPrefix namespaces the counters when the deployment does not
// configure one, so a shared Redis never collides with other tenants.
const defaultKeyPrefix = "5399ai:rl"

// The key carries the window second, so counters from closed windows are
// never read again; the TTL only reclaims them.
const windowKeyTTLSeconds = 2

// countCall bumps the per-window counter and stamps the TTL on the first
// call of the window, atomically.
var countCall = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter counts generation calls per account in Redis, so the cap
// holds across replicas.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter; an empty prefix falls back to
// the default namespace.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisLimiter{client: client, prefix: prefix}
}

// Allow counts one generation call for the account key against limit in
// the second containing now.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error) {
	if l == nil || l.client == nil || limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	second := now.Unix()
	reset := time.Unix(second+1, 0).UTC()

	windowKey := l.prefix + ":" + key + ":" + strconv.FormatInt(second, 10)
	calls, errCount := countCall.Run(ctx, l.client, []string{windowKey}, windowKeyTTLSeconds).Int64()
	if errCount != nil {
		return Result{}, errCount
	}
	if calls > int64(limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	return Result{Allowed: true, Remaining: limit - int(calls), Reset: reset}, nil
}
