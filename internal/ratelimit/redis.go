package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes, counts and conditionally records in one step.
// Scores are millisecond timestamps; members are unique per request.
//
// KEYS[1] window key
// ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] limit, ARGV[4] member
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	count = count + 1
	allowed = 1
end

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] ~= nil then
	oldest = tonumber(first[2])
end

return {allowed, count, oldest}
`)

// RedisWindow is a sliding-window log stored in Redis sorted sets, shared by
// every process pointing at the same Redis.
type RedisWindow struct {
	client redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// RedisOption configures a RedisWindow.
type RedisOption func(*RedisWindow)

// WithRedisPrefix sets the key prefix (default "ratelimit").
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *RedisWindow) { r.prefix = strings.Trim(prefix, ":") }
}

// WithRedisClock replaces the wall clock used for scores.
func WithRedisClock(clock func() time.Time) RedisOption {
	return func(r *RedisWindow) { r.clock = clock }
}

// NewRedisWindow returns a Redis-backed limiter.
func NewRedisWindow(client redis.UniversalClient, opts ...RedisOption) *RedisWindow {
	r := &RedisWindow{client: client, prefix: "ratelimit"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	_ Limiter = (*RedisWindow)(nil)
	_ Pinger  = (*RedisWindow)(nil)
)

// DialRedis creates a client and verifies connectivity.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// CheckAndRecord runs the sliding window script for the identifier.
func (r *RedisWindow) CheckAndRecord(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, error) {
	now := r.now()

	if window <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: now}, nil
	}
	if limit <= 0 {
		return deny(limit, window, now), nil
	}
	if r == nil || r.client == nil {
		return Decision{}, fmt.Errorf("redis rate limiter is not initialized")
	}

	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.client, []string{r.key(identifier)}, nowMs, windowMs, limit, member).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis sliding window: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis sliding window: unexpected reply length %d", len(res))
	}

	allowed, count, oldestMs := res[0] == 1, int(res[1]), res[2]
	resetAt := time.UnixMilli(oldestMs + windowMs)

	if !allowed {
		return deny(limit, resetAt.Sub(now), now), nil
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count,
		ResetAt:   resetAt,
	}, nil
}

// Ping verifies the Redis connection.
func (r *RedisWindow) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return fmt.Errorf("redis rate limiter is not initialized")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *RedisWindow) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisWindow) key(identifier string) string {
	return r.prefix + ":" + identifier
}

func (r *RedisWindow) now() time.Time {
	if r != nil && r.clock != nil {
		return r.clock()
	}
	return time.Now()
}
