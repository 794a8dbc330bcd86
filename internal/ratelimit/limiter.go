// Package ratelimit decides whether a client identifier may proceed.
//
// The primary algorithm is a sliding-window log: every admitted request
// appends its timestamp to the identifier's sequence, expired entries are
// pruned before counting, and a request is denied without being recorded
// once the live count reaches the limit.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// Decision is the outcome of a single check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long until the oldest counted request leaves the
	// window. Zero when the request was allowed.
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter checks and records a request for an identifier as one atomic step.
type Limiter interface {
	CheckAndRecord(ctx context.Context, identifier string, limit int, window time.Duration) (Decision, error)
}

// Pinger is implemented by backends that depend on an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeyFunc derives the client identifier from a request.
type KeyFunc func(r *http.Request) string

// UnknownClient is the identifier used when nothing identifies the caller.
const UnknownClient = "unknown"

// DefaultKeyFunc prefers an explicit header, then the first X-Forwarded-For
// entry when trusted, then the connection's remote host. The result is not
// validated; forwarded headers are client-controlled.
func DefaultKeyFunc(keyHeader string, trustForwardedFor bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustForwardedFor {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return UnknownClient
	}
}

func deny(limit int, retryAfter time.Duration, now time.Time) Decision {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Decision{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		RetryAfter: retryAfter,
		ResetAt:    now.Add(retryAfter),
	}
}
