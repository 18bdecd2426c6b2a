package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/5399ai/backend/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ConfigProvider supplies the current rate limit settings. It is read on
// every check so a config reload takes effect without a restart.
type ConfigProvider func() config.RateLimit

// RedisClientFactory constructs a Redis client for the given options.
type RedisClientFactory func(options *redis.Options) *redis.Client

// breaker backs off from Redis after a failure so a dead backend does not
// add a timeout to every generation call.
type breaker struct {
	mu    sync.Mutex
	until time.Time
}

const breakerHold = 30 * time.Second

func (b *breaker) open(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Before(b.until) {
		return true
	}
	b.until = time.Time{}
	return false
}

func (b *breaker) trip(err error, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Before(b.until) {
		return
	}
	b.until = now.Add(breakerHold)
	log.WithError(err).Warn("rate limit: redis unavailable, falling back to memory")
}

// Manager caps generation calls per account. It counts in memory by
// default and in Redis when configured, falling back to the in-memory
// counter while the Redis breaker is open.
type Manager struct {
	provider  ConfigProvider
	nowFn     func() time.Time
	memory    *MemoryLimiter
	newClient RedisClientFactory
	brk       breaker

	mu        sync.Mutex
	redis     *RedisLimiter
	redisAddr string
	redisDB   int
}

// NewManager constructs a Manager with default dependencies when nil.
func NewManager(provider ConfigProvider, nowFn func() time.Time, newClient RedisClientFactory) *Manager {
	if provider == nil {
		provider = func() config.RateLimit { return config.RateLimit{} }
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if newClient == nil {
		newClient = redis.NewClient
	}
	return &Manager{
		provider:  provider,
		nowFn:     nowFn,
		memory:    NewMemoryLimiter(),
		newClient: newClient,
	}
}

// Allow counts one generation call for the account key. Anonymous callers
// and a disabled cap always pass.
func (m *Manager) Allow(ctx context.Context, key string) (Result, error) {
	if m == nil || key == "" {
		return Result{Allowed: true}, nil
	}
	cfg := m.provider()
	if cfg.PerSecond <= 0 {
		return Result{Allowed: true}, nil
	}
	now := m.nowFn()

	if cfg.RedisEnabled && !m.brk.open(now) {
		limiter, errRedis := m.redisLimiter(ctx, cfg)
		if errRedis == nil {
			result, errAllow := limiter.Allow(ctx, key, cfg.PerSecond, now)
			if errAllow == nil {
				return result, nil
			}
			errRedis = errAllow
		}
		m.brk.trip(errRedis, now)
	}
	return m.memory.Allow(ctx, key, cfg.PerSecond, now)
}

// redisLimiter returns the connected limiter, rebuilding it when the
// configured address or database changed.
func (m *Manager) redisLimiter(ctx context.Context, cfg config.RateLimit) (*RedisLimiter, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis: missing address")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redis != nil && m.redisAddr == addr && m.redisDB == cfg.RedisDB {
		return m.redis, nil
	}
	if m.redis != nil {
		_ = m.redis.client.Close()
		m.redis = nil
	}

	client := m.newClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if errPing := client.Ping(ctxPing).Err(); errPing != nil {
		_ = client.Close()
		return nil, errPing
	}
	m.redis = NewRedisLimiter(client, cfg.RedisPrefix)
	m.redisAddr = addr
	m.redisDB = cfg.RedisDB
	return m.redis, nil
}
