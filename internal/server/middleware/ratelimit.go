package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/metrics"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/ratelimit"
)

// RateLimitedMessage is the failure message for 429 responses.
const RateLimitedMessage = "too many requests, please try again later"

// RateGateConfig configures a per-route rate gate.
type RateGateConfig struct {
	// Scope namespaces identifiers so routes keep independent quotas.
	Scope   string
	Limit   int
	Window  time.Duration
	KeyFunc ratelimit.KeyFunc
}

// RateGate admits at most Limit requests per Window for each client
// identifier. Limiter errors are logged and the request is let through.
func RateGate(limiter ratelimit.Limiter, cfg RateGateConfig) Stage {
	keyFn := cfg.KeyFunc
	if keyFn == nil {
		keyFn = ratelimit.DefaultKeyFunc("", true)
	}
	scope := cfg.Scope
	if scope == "" {
		scope = "default"
	}

	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		identifier := scope + ":" + keyFn(r)

		decision, err := limiter.CheckAndRecord(r.Context(), identifier, cfg.Limit, cfg.Window)
		if err != nil {
			metrics.RecordRateLimitDecision(scope, "error")
			if logger := observability.ServerLogger; logger != nil {
				logger.Warn("Rate limiter unavailable, allowing request",
					zap.String("scope", scope),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
			}
			next.ServeHTTP(w, r)
			return
		}

		setRateHeaders(w, decision)
		if !decision.Allowed {
			metrics.RecordRateLimitDecision(scope, "denied")
			rejectRate(w, r, decision)
			return
		}

		metrics.RecordRateLimitDecision(scope, "allowed")
		next.ServeHTTP(w, r)
	})
}

// Throttle is a global token-bucket gate in front of every route.
func Throttle(bucket *ratelimit.TokenBucket, keyFn ratelimit.KeyFunc) Stage {
	if keyFn == nil {
		keyFn = ratelimit.DefaultKeyFunc("", true)
	}

	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		decision := bucket.Allow(keyFn(r))
		if !decision.Allowed {
			metrics.RecordRateLimitDecision("global", "denied")
			rejectRate(w, r, decision)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setRateHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

func rejectRate(w http.ResponseWriter, r *http.Request, d ratelimit.Decision) {
	seconds := int(math.Ceil(d.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeFailure(w, r, http.StatusTooManyRequests, "RATE_LIMITED", RateLimitedMessage)
}
