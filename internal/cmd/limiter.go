package cmd

import (
	"context"
	"fmt"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/ratelimit"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
)

// limiters is the per-route window limiter and the optional global throttle.
type limiters struct {
	window   ratelimit.Limiter
	throttle *ratelimit.TokenBucket
	// health is nil for backends without an external dependency.
	health handlers.HealthChecker
	close  func() error
}

// buildLimiters creates the rate limit backends. Janitors run until ctx is done.
func buildLimiters(ctx context.Context, cfg *config.Config) (*limiters, error) {
	out := &limiters{close: func() error { return nil }}

	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		client, err := ratelimit.DialRedis(ctx, cfg.RateLimit.Redis.Addr, cfg.RateLimit.Redis.Password, cfg.RateLimit.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect rate limit backend: %w", err)
		}
		rw := ratelimit.NewRedisWindow(client, ratelimit.WithRedisPrefix(cfg.RateLimit.Redis.Prefix))
		out.window = rw
		out.health = handlers.CheckerFunc(rw.Ping)
		out.close = rw.Close

	default:
		idle := cfg.RateLimit.IdleTTL
		if idle <= 0 {
			idle = 2 * cfg.RateLimit.Window
		}
		w := ratelimit.NewWindow(ratelimit.WithIdleTTL(idle))
		w.StartJanitor(ctx, cfg.RateLimit.JanitorInterval)
		out.window = w
	}

	if cfg.RateLimit.Global.Enabled {
		tb := ratelimit.NewTokenBucket(cfg.RateLimit.Global.RPS, cfg.RateLimit.Global.Burst)
		tb.StartJanitor(ctx, cfg.RateLimit.JanitorInterval)
		out.throttle = tb
	}

	return out, nil
}
